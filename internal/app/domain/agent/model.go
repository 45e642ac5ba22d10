// Package agent defines fulfillment collection points and the customer's
// persisted selection.
package agent

// CollectionPoint is a fulfillment location an agent operates from.
type CollectionPoint struct {
	ID           string  `json:"id"`
	LocationName string  `json:"location_name"`
	Address      string  `json:"address"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// Selection is the collection point the customer last chose. A zero value
// means no selection has been made yet.
type Selection struct {
	Point CollectionPoint `json:"point"`
}

// IsZero reports whether no collection point has been selected.
func (s Selection) IsZero() bool {
	return s.Point.ID == ""
}
