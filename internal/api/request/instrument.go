package request

// CreateCustomInstrumentRequest registers a user-defined asset on its own,
// without recording a transaction against it. Repeats with the same
// clientRequestId return the already-created instrument.
type CreateCustomInstrumentRequest struct {
	ClientRequestID string `json:"clientRequestId"`
	Name            string `json:"name"`
	Currency        string `json:"currency"`
	Kind            string `json:"kind"`
	AnnualRatePct   string `json:"annualRatePct,omitempty"`
}
