package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"leadbook/internal/common"
	"leadbook/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection = "users"
	leadsCollection = "leads"
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// leadDocument mirrors models.Lead. full_name is derived on write so the
// name filter can match "first last" without an aggregation.
type leadDocument struct {
	ID             string     `bson:"_id"`
	FirstName      string     `bson:"first_name"`
	LastName       string     `bson:"last_name"`
	FullName       string     `bson:"full_name"`
	Email          string     `bson:"email"`
	Phone          string     `bson:"phone"`
	Company        string     `bson:"company"`
	City           string     `bson:"city"`
	State          string     `bson:"state"`
	Source         string     `bson:"source"`
	Status         string     `bson:"status"`
	Score          *float64   `bson:"score"`
	LeadValue      *float64   `bson:"lead_value"`
	LastActivityAt *time.Time `bson:"last_activity_at"`
	IsQualified    bool       `bson:"is_qualified"`
	CreatedBy      string     `bson:"created_by"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
}

func newLeadDocument(l *models.Lead) leadDocument {
	return leadDocument{
		ID:             l.ID.String(),
		FirstName:      l.FirstName,
		LastName:       l.LastName,
		FullName:       l.FullName(),
		Email:          l.Email,
		Phone:          l.Phone,
		Company:        l.Company,
		City:           l.City,
		State:          l.State,
		Source:         l.Source,
		Status:         l.Status,
		Score:          l.Score,
		LeadValue:      l.LeadValue,
		LastActivityAt: l.LastActivityAt,
		IsQualified:    l.IsQualified,
		CreatedBy:      l.CreatedBy.String(),
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func (d *leadDocument) toModel() (*models.Lead, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt lead id %q: %w", d.ID, err)
	}
	owner, err := uuid.Parse(d.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("corrupt lead owner %q: %w", d.CreatedBy, err)
	}
	return &models.Lead{
		ID:             id,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Email:          d.Email,
		Phone:          d.Phone,
		Company:        d.Company,
		City:           d.City,
		State:          d.State,
		Source:         d.Source,
		Status:         d.Status,
		Score:          d.Score,
		LeadValue:      d.LeadValue,
		LastActivityAt: d.LastActivityAt,
		IsQualified:    d.IsQualified,
		CreatedBy:      owner,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}, nil
}

// EnsureMongoIndexes creates the unique email indexes and the owner listing index.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	if _, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}
	if _, err := db.Collection(leadsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create leads indexes: %w", err)
	}
	return nil
}

func mapMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return common.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return &common.DuplicateKeyError{Field: "email"}
	}
	return err
}

type mongoUserRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoUserRepo(db *mongo.Database) UserRepository {
	return &mongoUserRepo{coll: db.Collection(usersCollection), now: time.Now}
}

func (r *mongoUserRepo) Create(ctx context.Context, user *models.User) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:           user.ID.String(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mapMongoError(err)
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *mongoUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (r *mongoUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: common.NormalizeEmail(email)}})
}

func (r *mongoUserRepo) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapMongoError(err)
	}
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", doc.ID, err)
	}
	return &models.User{
		ID:           id,
		Name:         doc.Name,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt.UTC(),
		UpdatedAt:    doc.UpdatedAt.UTC(),
	}, nil
}

type mongoLeadRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoLeadRepo(db *mongo.Database) LeadRepository {
	return &mongoLeadRepo{coll: db.Collection(leadsCollection), now: time.Now}
}

func (r *mongoLeadRepo) Create(ctx context.Context, lead *models.Lead) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	lead.CreatedAt, lead.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, newLeadDocument(lead)); err != nil {
		return mapMongoError(err)
	}
	return nil
}

func (r *mongoLeadRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Lead, error) {
	var doc leadDocument
	err := r.coll.FindOne(ctx, ownedLeadFilter(ownerID, id)).Decode(&doc)
	if err != nil {
		return nil, mapMongoError(err)
	}
	return doc.toModel()
}

func (r *mongoLeadRepo) Update(ctx context.Context, lead *models.Lead) error {
	lead.UpdatedAt = r.now().UTC().Truncate(time.Millisecond)
	doc := newLeadDocument(lead)
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "first_name", Value: doc.FirstName},
		{Key: "last_name", Value: doc.LastName},
		{Key: "full_name", Value: doc.FullName},
		{Key: "email", Value: doc.Email},
		{Key: "phone", Value: doc.Phone},
		{Key: "company", Value: doc.Company},
		{Key: "city", Value: doc.City},
		{Key: "state", Value: doc.State},
		{Key: "source", Value: doc.Source},
		{Key: "status", Value: doc.Status},
		{Key: "score", Value: doc.Score},
		{Key: "lead_value", Value: doc.LeadValue},
		{Key: "last_activity_at", Value: doc.LastActivityAt},
		{Key: "is_qualified", Value: doc.IsQualified},
		{Key: "updated_at", Value: doc.UpdatedAt},
	}}}

	res, err := r.coll.UpdateOne(ctx, ownedLeadFilter(lead.CreatedBy, lead.ID), update)
	if err != nil {
		return mapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *mongoLeadRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, ownedLeadFilter(ownerID, id))
	if err != nil {
		return mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *mongoLeadRepo) Find(ctx context.Context, q *models.LeadQuery) ([]*models.Lead, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(q.Skip)).
		SetLimit(int64(q.Limit))

	cursor, err := r.coll.Find(ctx, mongoLeadFilter(q), opts)
	if err != nil {
		return nil, mapMongoError(err)
	}
	defer cursor.Close(ctx)

	var docs []leadDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapMongoError(err)
	}
	leads := make([]*models.Lead, 0, len(docs))
	for i := range docs {
		lead, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func (r *mongoLeadRepo) Count(ctx context.Context, q *models.LeadQuery) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, mongoLeadFilter(q))
	if err != nil {
		return 0, mapMongoError(err)
	}
	return n, nil
}

func ownedLeadFilter(ownerID, id uuid.UUID) bson.D {
	return bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "created_by", Value: ownerID.String()},
	}
}

// mongoLeadFilter translates a LeadQuery into a find filter
func mongoLeadFilter(q *models.LeadQuery) bson.D {
	clauses := bson.A{bson.D{{Key: "created_by", Value: q.OwnerID.String()}}}
	for _, f := range q.Filters {
		clauses = append(clauses, mongoFilter(f))
	}
	return bson.D{{Key: "$and", Value: clauses}}
}

// matchNothing is a filter no document satisfies
var matchNothing = bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: bson.A{}}}}}

var mongoCompareOps = map[models.CompareOp]string{
	models.OpEq:  "$eq",
	models.OpGt:  "$gt",
	models.OpLt:  "$lt",
	models.OpGte: "$gte",
	models.OpLte: "$lte",
}

func mongoFilter(f models.Filter) bson.D {
	switch f := f.(type) {
	case models.Equals:
		fields := mongoTextFields(f.Field)
		if len(fields) == 0 {
			return matchNothing
		}
		var cond any = f.Value
		if f.FoldCase {
			cond = bson.Regex{Pattern: "^" + regexp.QuoteMeta(f.Value) + "$", Options: "i"}
		}
		return anyField(fields, cond)
	case models.Contains:
		fields := mongoTextFields(f.Field)
		if len(fields) == 0 {
			return matchNothing
		}
		return anyField(fields, bson.Regex{Pattern: regexp.QuoteMeta(f.Value), Options: "i"})
	case models.Range:
		op, ok := mongoCompareOps[f.Op]
		if !ok || !isNumericField(f.Field) {
			return matchNothing
		}
		return bson.D{{Key: string(f.Field), Value: bson.D{{Key: op, Value: f.Value}}}}
	case models.Between:
		if !isNumericField(f.Field) {
			return matchNothing
		}
		return bson.D{{Key: string(f.Field), Value: bson.D{
			{Key: "$gte", Value: f.Lower},
			{Key: "$lte", Value: f.Upper},
		}}}
	case models.TimeWindow:
		if f.Field != models.FieldCreatedAt && f.Field != models.FieldLastActivityAt {
			return matchNothing
		}
		cond := bson.D{}
		if f.From != nil {
			cond = append(cond, bson.E{Key: "$gte", Value: *f.From})
		}
		if f.To != nil {
			cond = append(cond, bson.E{Key: "$lte", Value: *f.To})
		}
		if len(cond) == 0 {
			cond = append(cond, bson.E{Key: "$ne", Value: nil})
		}
		return bson.D{{Key: string(f.Field), Value: cond}}
	case models.BooleanEquals:
		if f.Field != models.FieldIsQualified {
			return matchNothing
		}
		return bson.D{{Key: "is_qualified", Value: f.Value}}
	case models.AnyOf:
		if len(f.Filters) == 0 {
			return matchNothing
		}
		members := make(bson.A, 0, len(f.Filters))
		for _, member := range f.Filters {
			members = append(members, mongoFilter(member))
		}
		return bson.D{{Key: "$or", Value: members}}
	}
	return matchNothing
}

func mongoTextFields(field models.LeadField) []string {
	switch field {
	case models.FieldName:
		return []string{"first_name", "last_name", "full_name"}
	case models.FieldEmail, models.FieldCompany, models.FieldCity, models.FieldStatus, models.FieldSource:
		return []string{string(field)}
	}
	return nil
}

func anyField(fields []string, cond any) bson.D {
	if len(fields) == 1 {
		return bson.D{{Key: fields[0], Value: cond}}
	}
	members := make(bson.A, 0, len(fields))
	for _, field := range fields {
		members = append(members, bson.D{{Key: field, Value: cond}})
	}
	return bson.D{{Key: "$or", Value: members}}
}
