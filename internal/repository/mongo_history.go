package repository

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const receiptsCollection = "receipts"

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(20)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// Money is stored as decimal strings so no precision is lost on the way
// through BSON doubles.
type receiptDocument struct {
	ID           string         `bson:"_id"`
	CustomerName string         `bson:"customer_name,omitempty"`
	Items        []lineDocument `bson:"items"`
	Total        string         `bson:"total"`
	CreatedAt    time.Time      `bson:"created_at"`
	Seq          int64          `bson:"seq"`
}

type lineDocument struct {
	ProductID        string    `bson:"product_id"`
	Name             string    `bson:"name"`
	WeightGrams      int64     `bson:"weight_grams"`
	MainPrice        string    `bson:"main_price"`
	ActivePrice      string    `bson:"active_price"`
	ScanCode         string    `bson:"scan_code"`
	ProductCreatedAt time.Time `bson:"product_created_at"`
	Quantity         int       `bson:"quantity"`
}

type MongoHistory struct {
	collection *mongo.Collection
	lastSeq    atomic.Int64
}

func NewMongoHistory(db *mongo.Database) *MongoHistory {
	return &MongoHistory{collection: db.Collection(receiptsCollection)}
}

func (m *MongoHistory) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "seq", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *MongoHistory) Append(ctx context.Context, r *domain.Receipt) error {
	doc := toDocument(r)
	doc.Seq = m.nextSeq()
	_, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReceipt
		}
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

func (m *MongoHistory) List(ctx context.Context) ([]*domain.Receipt, error) {
	// BSON dates stop at milliseconds, so insertion order decides ties.
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer cur.Close(ctx)

	receipts := []*domain.Receipt{}
	for cur.Next(ctx) {
		var doc receiptDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode receipt: %w", err)
		}
		r, err := doc.toReceipt()
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return receipts, nil
}

// nextSeq is strictly increasing and starts from the wall clock so it keeps
// growing across restarts.
func (m *MongoHistory) nextSeq() int64 {
	for {
		last := m.lastSeq.Load()
		next := max(time.Now().UnixNano(), last+1)
		if m.lastSeq.CompareAndSwap(last, next) {
			return next
		}
	}
}

func (m *MongoHistory) Get(ctx context.Context, id string) (*domain.Receipt, error) {
	var doc receiptDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return doc.toReceipt()
}

func (m *MongoHistory) Delete(ctx context.Context, id string) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

func (m *MongoHistory) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.collection.Database().Client().Disconnect(ctx)
}

func toDocument(r *domain.Receipt) receiptDocument {
	doc := receiptDocument{
		ID:           r.ID,
		CustomerName: r.CustomerName,
		Items:        make([]lineDocument, 0, len(r.Items)),
		Total:        r.Total.String(),
		CreatedAt:    r.CreatedAt,
	}
	for _, l := range r.Items {
		doc.Items = append(doc.Items, lineDocument{
			ProductID:        l.Product.ID,
			Name:             l.Product.Name,
			WeightGrams:      l.Product.WeightGrams,
			MainPrice:        l.Product.MainPrice.String(),
			ActivePrice:      l.Product.ActivePrice.String(),
			ScanCode:         l.Product.ScanCode,
			ProductCreatedAt: l.Product.CreatedAt,
			Quantity:         l.Quantity,
		})
	}
	return doc
}

func (d receiptDocument) toReceipt() (*domain.Receipt, error) {
	total, err := decimal.NewFromString(d.Total)
	if err != nil {
		return nil, fmt.Errorf("receipt %s: bad total %q: %w", d.ID, d.Total, err)
	}
	r := &domain.Receipt{
		ID:           d.ID,
		CustomerName: d.CustomerName,
		Items:        make([]domain.CartLine, 0, len(d.Items)),
		Total:        total,
		CreatedAt:    d.CreatedAt,
	}
	for _, l := range d.Items {
		mainPrice, err := decimal.NewFromString(l.MainPrice)
		if err != nil {
			return nil, fmt.Errorf("receipt %s: bad main price %q: %w", d.ID, l.MainPrice, err)
		}
		activePrice, err := decimal.NewFromString(l.ActivePrice)
		if err != nil {
			return nil, fmt.Errorf("receipt %s: bad active price %q: %w", d.ID, l.ActivePrice, err)
		}
		r.Items = append(r.Items, domain.CartLine{
			Product: domain.Product{
				ID:          l.ProductID,
				Name:        l.Name,
				WeightGrams: l.WeightGrams,
				MainPrice:   mainPrice,
				ActivePrice: activePrice,
				ScanCode:    l.ScanCode,
				CreatedAt:   l.ProductCreatedAt,
			},
			Quantity: l.Quantity,
		})
	}
	return r, nil
}
