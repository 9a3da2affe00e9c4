package queries

// LoadRoadmapQuery fetches the stored roadmap document
type LoadRoadmapQuery struct{}

// Validate validates the query
func (q LoadRoadmapQuery) Validate() error {
	return nil
}
