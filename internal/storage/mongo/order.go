package mongo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adornica/storefront/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

type orderItemDoc struct {
	ID          string         `bson:"id"`
	Name        string         `bson:"name,omitempty"`
	Description string         `bson:"description,omitempty"`
	Price       string         `bson:"price"`
	Category    string         `bson:"category,omitempty"`
	Weight      string         `bson:"weight,omitempty"`
	Image       string         `bson:"image,omitempty"`
	Extra       map[string]any `bson:"extra,omitempty"`
	Quantity    int            `bson:"quantity"`
}

type orderDoc struct {
	ID              string             `bson:"_id"`
	UserID          string             `bson:"user_id"`
	UserEmail       string             `bson:"user_email"`
	Items           []orderItemDoc     `bson:"items"`
	Total           string             `bson:"total"`
	Status          string             `bson:"status"`
	DeliveryAddress string             `bson:"delivery_address"`
	ContactNumber   string             `bson:"contact_number"`
	PaymentContact  string             `bson:"payment_contact"`
	Customer        order.CustomerInfo `bson:"customer_info"`
	CreatedAt       time.Time          `bson:"created_at"`
	DispatchedAt    *time.Time         `bson:"dispatched_at,omitempty"`
}

// OrderRepository implements order.Repository backed by the orders
// collection.
type OrderRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewOrderRepository returns an OrderRepository on the given database.
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection("orders"), now: time.Now}
}

// Create persists a new order, assigning its identifier and creation
// timestamp, and returns the identifier.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) (string, error) {
	doc := orderDoc{
		ID:              uuid.New().String(),
		UserID:          o.UserID,
		UserEmail:       o.UserEmail,
		Items:           make([]orderItemDoc, len(o.Items)),
		Total:           o.Total.String(),
		Status:          string(o.Status),
		DeliveryAddress: o.DeliveryAddress,
		ContactNumber:   o.ContactNumber,
		PaymentContact:  o.PaymentContact,
		Customer:        o.Customer,
		CreatedAt:       r.now().UTC(),
	}
	for i, it := range o.Items {
		doc.Items[i] = orderItemDoc{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price.String(),
			Category:    it.Category,
			Weight:      it.Weight,
			Image:       it.Image,
			Extra:       rawToAny(it.Extra),
			Quantity:    it.Quantity,
		}
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", errors.Wrap(err, "creating order")
	}
	return doc.ID, nil
}

// List returns all orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, findSortedBy("created_at", -1))
	if err != nil {
		return nil, errors.Wrap(err, "listing orders")
	}
	defer cur.Close(ctx)

	var orders []order.Order
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding order")
		}
		o, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, cur.Err()
}

// Dispatch marks a pending order dispatched and stamps the dispatch time.
// Orders that already left the pending state are rejected.
func (r *OrderRepository) Dispatch(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(order.StatusPending)},
		bson.M{"$set": bson.M{
			"status":        string(order.StatusDispatched),
			"dispatched_at": r.now().UTC(),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "dispatching order %q", id)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing order from one already dispatched.
		count, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return errors.Wrapf(err, "checking order %q", id)
		}
		if count == 0 {
			return order.ErrNotFound
		}
		return order.ErrAlreadyDispatched
	}
	return nil
}

func (d orderDoc) toDomain() (order.Order, error) {
	total, err := decimal.NewFromString(d.Total)
	if err != nil {
		return order.Order{}, errors.Wrapf(err, "order %q total", d.ID)
	}

	items := make([]order.Item, len(d.Items))
	for i, it := range d.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return order.Order{}, errors.Wrapf(err, "order %q item %q price", d.ID, it.ID)
		}
		items[i] = order.Item{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       price,
			Category:    it.Category,
			Weight:      it.Weight,
			Image:       it.Image,
			Extra:       anyToRaw(it.Extra),
			Quantity:    it.Quantity,
		}
	}

	return order.Order{
		ID:              d.ID,
		UserID:          d.UserID,
		UserEmail:       d.UserEmail,
		Items:           items,
		Total:           total,
		Status:          order.Status(d.Status),
		DeliveryAddress: d.DeliveryAddress,
		ContactNumber:   d.ContactNumber,
		PaymentContact:  d.PaymentContact,
		Customer:        d.Customer,
		CreatedAt:       d.CreatedAt,
		DispatchedAt:    d.DispatchedAt,
	}, nil
}

// rawToAny converts opaque JSON passthrough fields into plain values the BSON
// encoder can store. Values that fail to decode are dropped rather than
// failing the order.
func rawToAny(extra map[string]json.RawMessage) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(extra))
	for k, raw := range extra {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			out[k] = v
		}
	}
	return out
}

func anyToRaw(extra map[string]any) map[string]json.RawMessage {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		if raw, err := json.Marshal(v); err == nil {
			out[k] = raw
		}
	}
	return out
}
