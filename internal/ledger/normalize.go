package ledger

import (
	"strings"

	"github.com/portfelo/ledger-backend/internal/apperrors"
	"github.com/portfelo/ledger-backend/internal/model"
)

// InstrumentPayload is a free-form, client-submitted instrument description.
type InstrumentPayload struct {
	Provider    string `json:"provider"`
	ProviderKey string `json:"providerKey"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	Type        string `json:"type"`
	Exchange    string `json:"exchange"`
	Region      string `json:"region"`
	LogoURL     string `json:"logoUrl"`
}

// NormalizeInstrument maps a client payload onto a canonical identity:
// provider lowercased, key trimmed (required), currency uppercased, optional
// fields blanked when whitespace-only. Cash classification follows the type
// tag or the system provider.
func NormalizeInstrument(p InstrumentPayload) (model.Instrument, error) {
	providerKey := strings.TrimSpace(p.ProviderKey)
	if providerKey == "" {
		return model.Instrument{}, apperrors.ErrMissingProviderKey
	}

	return model.Instrument{
		Provider:    strings.ToLower(strings.TrimSpace(p.Provider)),
		ProviderKey: providerKey,
		Symbol:      strings.TrimSpace(p.Symbol),
		Name:        strings.TrimSpace(p.Name),
		Currency:    strings.ToUpper(strings.TrimSpace(p.Currency)),
		Type:        model.InstrumentType(strings.ToUpper(strings.TrimSpace(p.Type))),
		Exchange:    strings.TrimSpace(p.Exchange),
		Region:      strings.TrimSpace(p.Region),
		LogoURL:     strings.TrimSpace(p.LogoURL),
	}, nil
}

// BuildCashInstrument synthesizes the system-minted identity for a currency.
// Cash identities are never taken from user input.
func BuildCashInstrument(currency string) model.Instrument {
	c := strings.ToUpper(strings.TrimSpace(currency))
	return model.Instrument{
		Provider:    model.CashProvider,
		ProviderKey: c,
		Symbol:      c,
		Name:        c,
		Currency:    c,
		Type:        model.InstrumentCurrency,
	}
}

// InstrumentUpsertPayload is the storage upsert row for an instrument
// identity. LogoURL and Type are pointers so that an unknown value is omitted
// from the write entirely: a later submission with less data can never
// clobber a previously stored logo or type.
type InstrumentUpsertPayload struct {
	Provider    string
	ProviderKey string
	Symbol      string
	Name        string
	Currency    string
	Type        *string
	Exchange    *string
	Region      *string
	LogoURL     *string
}

// BuildInstrumentUpsertPayload converts a normalized identity into its upsert
// row, omitting empty optional fields.
func BuildInstrumentUpsertPayload(inst model.Instrument) InstrumentUpsertPayload {
	p := InstrumentUpsertPayload{
		Provider:    inst.Provider,
		ProviderKey: inst.ProviderKey,
		Symbol:      inst.Symbol,
		Name:        inst.Name,
		Currency:    inst.Currency,
	}
	if inst.Type != "" {
		t := string(inst.Type)
		p.Type = &t
	}
	if inst.Exchange != "" {
		p.Exchange = &inst.Exchange
	}
	if inst.Region != "" {
		p.Region = &inst.Region
	}
	if inst.LogoURL != "" {
		p.LogoURL = &inst.LogoURL
	}
	return p
}
