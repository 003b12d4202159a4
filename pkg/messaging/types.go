package messaging

type ChangeTopic string

const (
	FilterSetSaved ChangeTopic = "filterset_saved"
)
