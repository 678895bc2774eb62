package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/huiapp/huiauth/store"
)

// FindSetting implements [store.SettingStore].
func (s *Store) FindSetting(ctx context.Context, id string) (*store.Setting, error) {
	var row store.Setting
	if err := s.settings.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&row); err != nil {
		return nil, classify("find setting", err)
	}
	return &row, nil
}

// FindSettingsByCategory implements [store.SettingStore].
func (s *Store) FindSettingsByCategory(ctx context.Context, category string) ([]store.Setting, error) {
	cur, err := s.settings.Find(ctx,
		bson.D{{Key: "category", Value: category}},
		options.Find().SetSort(bson.D{{Key: "id", Value: 1}}),
	)
	if err != nil {
		return nil, classify("find settings by category", err)
	}
	rows := make([]store.Setting, 0)
	if err := cur.All(ctx, &rows); err != nil {
		return nil, classify("find settings by category", err)
	}
	return rows, nil
}

// UpdateSettingValue implements [store.SettingStore].
func (s *Store) UpdateSettingValue(ctx context.Context, id string, value any) (*store.Setting, error) {
	var row store.Setting
	err := s.settings.FindOneAndUpdate(ctx,
		bson.D{{Key: "id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "value", Value: value},
			{Key: "updated_at", Value: s.now().UTC()},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&row)
	if err != nil {
		return nil, classify("update setting", err)
	}
	return &row, nil
}

// CreateSetting implements [store.SettingStore].
func (s *Store) CreateSetting(ctx context.Context, row store.Setting) (*store.Setting, error) {
	now := s.now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	if _, err := s.settings.InsertOne(ctx, row); err != nil {
		return nil, classify("create setting", err)
	}
	return &row, nil
}
