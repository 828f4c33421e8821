package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
)

const clientsCollection = "clients"

type ClientRepository struct {
	collection *mongo.Collection
}

func NewClientRepository(db *mongo.Database) client.Repository {
	return &ClientRepository{collection: db.Collection(clientsCollection)}
}

func (r *ClientRepository) GetPaginated(ctx context.Context, params *client.FindParams) ([]*client.Client, int64, error) {
	if params == nil {
		params = &client.FindParams{}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	filter := bson.M{}
	if q := strings.TrimSpace(params.Q); q != "" {
		pattern := primitiveRegex(q)
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
			bson.M{"phone": pattern},
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count clients")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, errors.Wrap(err, "find clients")
	}
	defer cursor.Close(ctx)

	var out []*client.Client
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, errors.Wrap(err, "decode clients")
	}
	return out, total, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*client.Client, error) {
	return r.getOne(ctx, bson.M{"_id": id})
}

func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*client.Client, error) {
	return r.getOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *ClientRepository) getOne(ctx context.Context, filter bson.M) (*client.Client, error) {
	var c client.Client
	if err := r.collection.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, client.ErrNotFound
		}
		return nil, errors.Wrap(err, "find client")
	}
	return &c, nil
}

func (r *ClientRepository) Exists(ctx context.Context, name, email string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"name":  name,
		"email": strings.ToLower(strings.TrimSpace(email)),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "check client exists")
	}
	return count > 0, nil
}

func (r *ClientRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *ClientRepository) Create(ctx context.Context, c *client.Client) error {
	if _, err := r.collection.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return client.ErrDuplicateKey
		}
		return errors.Wrap(err, "insert client")
	}
	return nil
}

func (r *ClientRepository) Update(ctx context.Context, c *client.Client) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return errors.Wrap(err, "update client")
	}
	if res.MatchedCount == 0 {
		return client.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) SavePaymentProfile(ctx context.Context, id string, profile client.PaymentProfile) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"paymentMethod": profile,
			"updatedAt":     time.Now().UTC(),
		},
	})
	if err != nil {
		return errors.Wrap(err, "save payment profile")
	}
	if res.MatchedCount == 0 {
		return client.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "delete client")
	}
	if res.DeletedCount == 0 {
		return client.ErrNotFound
	}
	return nil
}

// BulkUpsert submits one unordered bulk write. Per-operation failures come
// back in BulkResult.Errors; only a chunk-level failure returns an error.
func (r *ClientRepository) BulkUpsert(ctx context.Context, ops []client.BulkOperation) (*client.BulkResult, error) {
	if len(ops) == 0 {
		return &client.BulkResult{UpsertedIDs: map[int]string{}}, nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(ops))
	result := &client.BulkResult{UpsertedIDs: make(map[int]string)}

	for _, op := range ops {
		if op.InsertOnly {
			doc := newDocumentFromPatch(op.Patch, now)
			models = append(models, mongo.NewInsertOneModel().SetDocument(doc))
			result.UpsertedIDs[op.Row] = doc.ID
			continue
		}

		filter := bson.M{}
		switch {
		case op.FilterID != "":
			filter["_id"] = op.FilterID
		case op.FilterEmail != "":
			filter["email"] = op.FilterEmail
		default:
			return nil, client.ErrEmptyOperation
		}

		set, setOnInsert := splitPatch(op.Patch, now)
		if op.FilterEmail != "" {
			// Email-filtered upserts need an id on the insert branch; the
			// store would otherwise mint an ObjectID and break the string-id
			// convention.
			setOnInsert["_id"] = uuid.NewString()
		}

		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$set": set, "$setOnInsert": setOnInsert}).
			SetUpsert(true))
	}

	res, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if !errors.As(err, &bwe) {
			return nil, errors.Wrap(err, "bulk write clients")
		}
		// Unordered bulk: individual write errors do not abort siblings.
		for _, we := range bwe.WriteErrors {
			if we.Index >= 0 && we.Index < len(ops) {
				result.Errors = append(result.Errors, client.OperationError{
					Row:     ops[we.Index].Row,
					Message: we.Message,
				})
				delete(result.UpsertedIDs, ops[we.Index].Row)
			}
		}
		if bwe.WriteConcernError != nil {
			return nil, errors.Errorf("bulk write concern: %s", bwe.WriteConcernError.Message)
		}
	}

	if res != nil {
		result.Inserted = res.InsertedCount
		result.Matched = res.MatchedCount
		result.Modified = res.ModifiedCount
		result.Upserted = res.UpsertedCount
		for idx, rawID := range res.UpsertedIDs {
			if idx < 0 || int(idx) >= len(ops) {
				continue
			}
			if id, ok := rawID.(string); ok {
				result.UpsertedIDs[ops[idx].Row] = id
			}
		}
	}

	return result, nil
}

func (r *ClientRepository) ForEach(ctx context.Context, fn func(*client.Client) error) error {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return errors.Wrap(err, "find clients")
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var c client.Client
		if err := cursor.Decode(&c); err != nil {
			return errors.Wrap(err, "decode client")
		}
		if err := fn(&c); err != nil {
			return err
		}
	}
	return errors.Wrap(cursor.Err(), "iterate clients")
}

func (r *ClientRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "ownedBy", Value: 1}}},
		{Keys: bson.D{{Key: "contactStatus", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	return errors.Wrap(err, "ensure client indexes")
}

func primitiveRegex(q string) bson.M {
	escaped := regexEscaper.Replace(q)
	return bson.M{"$regex": escaped, "$options": "i"}
}

var regexEscaper = strings.NewReplacer(
	`\`, `\\`, `.`, `\.`, `+`, `\+`, `*`, `\*`, `?`, `\?`,
	`(`, `\(`, `)`, `\)`, `[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`,
	`^`, `\^`, `$`, `\$`, `|`, `\|`,
)
