package store

import "context"

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM catalog_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed records an event in the catalog audit trail
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO catalog_events (event_id, event_type, product_id) VALUES ($1, $2, $3) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType, productID)
	return err
}
