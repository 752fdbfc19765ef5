package market

type SnapshotRequest struct {
	Interval string `json:"interval" validate:"required,interval"`
}
