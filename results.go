package descent

// Results holds the predictions of the fit line and the least squares reference line
type Results struct {
	X         []float64 `json:"x"`
	Predicted []float64 `json:"predicted"`
	Reference []float64 `json:"reference,omitempty"`
}
