package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GTDGit/esim_api/internal/config"
	"github.com/GTDGit/esim_api/internal/models"
)

const mirrorCollection = "products"

// mirrorProduct is the document shape of a catalog product in MongoDB.
type mirrorProduct struct {
	SKU            string               `bson:"sku"`
	Name           string               `bson:"name"`
	Provider       string               `bson:"provider"`
	Source         string               `bson:"source"`
	Countries      []string             `bson:"countries"`
	DataMB         int                  `bson:"data_mb"`
	ValidityDays   int                  `bson:"validity_days"`
	RetailPrice    primitive.Decimal128 `bson:"retail_price"`
	RetailCurrency string               `bson:"retail_currency"`
	IsActive       bool                 `bson:"is_active"`
	LastSyncedAt   time.Time            `bson:"last_synced_at"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

// MongoCatalogMirror keeps a document copy of the catalog for storefront reads.
type MongoCatalogMirror struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoCatalogMirror connects to MongoDB and ensures the sku index.
func NewMongoCatalogMirror(ctx context.Context, cfg config.MongoConfig) (*MongoCatalogMirror, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(mirrorCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sku", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo index failed: %w", err)
	}
	return &MongoCatalogMirror{client: client, coll: coll}, nil
}

// Sync upserts active products by SKU and flags deactivated SKUs.
func (m *MongoCatalogMirror) Sync(ctx context.Context, active []models.Product, deactivated []string) error {
	if len(active) > 0 {
		writes := make([]mongo.WriteModel, 0, len(active))
		for i := range active {
			doc, err := toMirrorProduct(&active[i])
			if err != nil {
				return err
			}
			writes = append(writes, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"sku": doc.SKU}).
				SetReplacement(doc).
				SetUpsert(true))
		}
		if _, err := m.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("mirror bulk write failed: %w", err)
		}
	}

	if len(deactivated) > 0 {
		_, err := m.coll.UpdateMany(ctx,
			bson.M{"sku": bson.M{"$in": deactivated}},
			bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
		)
		if err != nil {
			return fmt.Errorf("mirror deactivate failed: %w", err)
		}
	}
	return nil
}

// GetBySKU returns the mirrored product. ok is false when the SKU is not mirrored.
func (m *MongoCatalogMirror) GetBySKU(ctx context.Context, sku string) (*models.Product, bool, error) {
	var doc mirrorProduct
	err := m.coll.FindOne(ctx, bson.M{"sku": sku}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mirror lookup failed: %w", err)
	}
	p, err := fromMirrorProduct(&doc)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// Close disconnects from MongoDB.
func (m *MongoCatalogMirror) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func toMirrorProduct(p *models.Product) (*mirrorProduct, error) {
	price, err := primitive.ParseDecimal128(p.RetailPrice.String())
	if err != nil {
		return nil, fmt.Errorf("invalid retail price for %s: %w", p.SKU, err)
	}
	return &mirrorProduct{
		SKU:            p.SKU,
		Name:           p.Name,
		Provider:       p.Provider,
		Source:         string(p.Source),
		Countries:      []string(p.Countries),
		DataMB:         p.DataMB,
		ValidityDays:   p.ValidityDays,
		RetailPrice:    price,
		RetailCurrency: p.RetailCurrency,
		IsActive:       p.IsActive,
		LastSyncedAt:   p.LastSyncedAt,
		UpdatedAt:      time.Now(),
	}, nil
}

func fromMirrorProduct(d *mirrorProduct) (*models.Product, error) {
	price, err := decimal.NewFromString(d.RetailPrice.String())
	if err != nil {
		return nil, fmt.Errorf("invalid mirrored price for %s: %w", d.SKU, err)
	}
	return &models.Product{
		SKU:            d.SKU,
		Name:           d.Name,
		Provider:       d.Provider,
		Source:         models.Source(d.Source),
		Countries:      d.Countries,
		DataMB:         d.DataMB,
		ValidityDays:   d.ValidityDays,
		RetailPrice:    price,
		RetailCurrency: d.RetailCurrency,
		IsActive:       d.IsActive,
		LastSyncedAt:   d.LastSyncedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}
