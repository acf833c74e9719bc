package model

// AggregateRef points at a domain object (e.g. an event) that embeds medias.
type AggregateRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}
