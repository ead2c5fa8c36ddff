// Package mongodb implements core.Driver on MongoDB.
//
// Queries whose root holds joins run as aggregations: every join becomes a
// $lookup into the relation path followed by an $unwind that keeps
// documents without a match, which is a left join. Joined collections must
// live in the same database as the queried one.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/leandroluk/golemspec/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDriver runs golem operations on a MongoDB client.
type MongoDriver struct {
	client          *mongo.Client
	defaultDatabase string
}

var _ core.Driver = (*MongoDriver)(nil)

// NewMongoDriver connects to uri and pings the deployment. defaultDB is
// used for schemas that do not name a database.
func NewMongoDriver(ctx context.Context, uri string, defaultDB string) (*MongoDriver, error) {
	opts := mopt.Client().ApplyURI(uri)
	opts.SetConnectTimeout(10 * time.Second).SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &MongoDriver{client: client, defaultDatabase: defaultDB}, nil
}

func (driver *MongoDriver) coll(schema *core.SchemaCore) (*mongo.Collection, error) {
	dbName := driver.defaultDatabase
	if schema.Database != "" {
		dbName = schema.Database
	}
	if dbName == "" {
		return nil, fmt.Errorf("golem: mongo: no database for %s (set Schema Database or the driver default)", schema.Collection)
	}
	if schema.Collection == "" {
		return nil, fmt.Errorf("golem: mongo: schema has no collection")
	}
	return driver.client.Database(dbName).Collection(schema.Collection), nil
}

// withSession binds the context transaction, if any, to ctx.
func (driver *MongoDriver) withSession(ctx context.Context) context.Context {
	if tx := core.TransactionFrom(ctx); tx != nil {
		if mt, ok := tx.(*mongoTransaction); ok {
			return mongo.NewSessionContext(ctx, mt.session)
		}
	}
	return ctx
}

// fieldPath is the document path a condition targets.
func fieldPath(condition *core.Condition) string {
	if condition.Attribute != nil {
		return condition.Attribute.Path
	}
	return condition.FieldName
}

func buildFilter(condition *core.Condition) bson.M {
	if condition == nil || condition.Operator == nil || condition.IsTrue() {
		return bson.M{}
	}
	if condition.Operator.IsLogical() {
		childFilterList := make([]bson.M, 0, len(condition.Children))
		for _, child := range condition.Children {
			childFilterList = append(childFilterList, buildFilter(child))
		}
		switch *condition.Operator {
		case core.OpAnd:
			return bson.M{"$and": childFilterList}
		case core.OpOr:
			return bson.M{"$or": childFilterList}
		case core.OpNot:
			return bson.M{"$nor": childFilterList}
		default:
			return bson.M{}
		}
	}

	fieldName := fieldPath(condition)
	switch *condition.Operator {
	case core.OpNil:
		return bson.M{fieldName: bson.M{"$eq": nil}}
	case core.OpEq:
		return bson.M{fieldName: toBSON(condition.Value)}
	case core.OpGt:
		return bson.M{fieldName: bson.M{"$gt": toBSON(condition.Value)}}
	case core.OpGte:
		return bson.M{fieldName: bson.M{"$gte": toBSON(condition.Value)}}
	case core.OpLt:
		return bson.M{fieldName: bson.M{"$lt": toBSON(condition.Value)}}
	case core.OpLte:
		return bson.M{fieldName: bson.M{"$lte": toBSON(condition.Value)}}
	case core.OpLike, core.OpILike:
		pattern := toMongoLikePattern(fmt.Sprintf("%v", condition.Value))
		return bson.M{fieldName: primitive.Regex{Pattern: pattern, Options: "i"}}
	case core.OpBetween:
		bounds, _ := condition.Value.([]any)
		if len(bounds) != 2 {
			return bson.M{fieldName: bson.M{"$in": bson.A{}}}
		}
		return bson.M{fieldName: bson.M{"$gte": toBSON(bounds[0]), "$lte": toBSON(bounds[1])}}
	case core.OpIn:
		var array []any
		switch v := condition.Value.(type) {
		case []any:
			array = v
		default:
			array = []any{condition.Value}
		}
		return bson.M{fieldName: bson.M{"$in": toBSON(array)}}
	default:
		return bson.M{}
	}
}

// buildSort resolves sort keys to document paths. Keys that are relation
// paths add their joins to the root, so it must run before buildLookups.
func buildSort(schema *core.SchemaCore, query *core.Where) bson.D {
	sortDoc := bson.D{}
	for _, sortItem := range query.Sort {
		key := sortItem.FieldName
		if attr := core.SortKey(schema, query.From, key); attr != nil {
			key = attr.Path
		}
		sortDoc = append(sortDoc, bson.E{Key: key, Value: int(sortItem.Order)})
	}
	return sortDoc
}

// buildLookups renders the root joins as $lookup + $unwind stages.
func buildLookups(root *core.Root) mongo.Pipeline {
	if root == nil {
		return nil
	}
	var pipeline mongo.Pipeline
	for _, j := range root.Joins() {
		localField := j.LocalColumn
		if j.ParentPath != "" {
			localField = j.ParentPath + "." + j.LocalColumn
		}
		pipeline = append(pipeline,
			bson.D{{Key: "$lookup", Value: bson.D{
				{Key: "from", Value: j.Schema().Collection},
				{Key: "localField", Value: localField},
				{Key: "foreignField", Value: j.ForeignColumn},
				{Key: "as", Value: j.Path},
			}}},
			bson.D{{Key: "$unwind", Value: bson.D{
				{Key: "path", Value: "$" + j.Path},
				{Key: "preserveNullAndEmptyArrays", Value: true},
			}}},
		)
	}
	return pipeline
}

// buildPipeline renders a find as an aggregation over the root joins.
// Joined documents are projected away from the result.
func buildPipeline(query *core.Where, sortDoc bson.D, single bool) mongo.Pipeline {
	pipeline := buildLookups(query.From)
	pipeline = append(pipeline, bson.D{{Key: "$match", Value: buildFilter(safeCondition(query))}})
	if len(sortDoc) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sortDoc}})
	}
	if single {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: 1}})
	} else {
		if query.Offset > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(query.Offset)}})
		}
		if query.Limit > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(query.Limit)}})
		}
	}
	if query.From != nil {
		project := bson.D{}
		for _, j := range query.From.Joins() {
			if j.ParentPath == "" {
				project = append(project, bson.E{Key: j.Path, Value: 0})
			}
		}
		if len(project) > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$project", Value: project}})
		}
	}
	return pipeline
}

// Pipeline renders a find on schema as the aggregation pipeline the driver
// runs when the query has joins. Without joins the pipeline is equivalent
// to the Find the driver issues.
func Pipeline(schema *core.SchemaCore, query *core.Where) mongo.Pipeline {
	if query == nil {
		query = &core.Where{}
	}
	return buildPipeline(query, buildSort(schema, query), false)
}

func hasJoins(query *core.Where) bool {
	return query != nil && query.From != nil && len(query.From.Joins()) > 0
}

func (driver *MongoDriver) Connect(ctx context.Context) error {
	return driver.client.Ping(ctx, nil)
}

func (driver *MongoDriver) Ping(ctx context.Context) error {
	return driver.client.Ping(ctx, nil)
}

func (driver *MongoDriver) Close(ctx context.Context) error {
	return driver.client.Disconnect(ctx)
}

func (driver *MongoDriver) Transaction(ctx context.Context) (core.Transaction, error) {
	session, err := driver.client.StartSession()
	if err != nil {
		return nil, err
	}
	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &mongoTransaction{session: session}, nil
}

// document renders a struct as a bson document keyed by column names.
func document(schema *core.SchemaCore, doc any) bson.D {
	valueList, _ := core.StructValues(schema, doc)
	out := make(bson.D, 0, len(schema.Fields))
	for i, field := range schema.Fields {
		out = append(out, bson.E{Key: field.DatabaseColumnName, Value: toBSON(valueList[i])})
	}
	return out
}

func (driver *MongoDriver) Insert(ctx context.Context, schema *core.SchemaCore, documents ...any) error {
	if len(documents) == 0 {
		return nil
	}
	coll, err := driver.coll(schema)
	if err != nil {
		return err
	}
	documentList := make([]any, 0, len(documents))
	for _, doc := range documents {
		documentList = append(documentList, document(schema, doc))
	}
	_, err = coll.InsertMany(driver.withSession(ctx), documentList)
	return err
}

func (driver *MongoDriver) find(ctx context.Context, schema *core.SchemaCore, query *core.Where, single bool) ([]map[string]any, error) {
	if query == nil {
		query = &core.Where{}
	}
	ctx = driver.withSession(ctx)
	coll, err := driver.coll(schema)
	if err != nil {
		return nil, err
	}

	var cursor *mongo.Cursor
	sortDoc := buildSort(schema, query)
	if hasJoins(query) {
		cursor, err = coll.Aggregate(ctx, buildPipeline(query, sortDoc, single))
	} else {
		findOpts := mopt.Find()
		if len(sortDoc) > 0 {
			findOpts.SetSort(sortDoc)
		}
		if single {
			findOpts.SetLimit(1)
		} else {
			if query.Limit > 0 {
				findOpts.SetLimit(int64(query.Limit))
			}
			if query.Offset > 0 {
				findOpts.SetSkip(int64(query.Offset))
			}
		}
		cursor, err = coll.Find(ctx, buildFilter(safeCondition(query)), findOpts)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var resultList []map[string]any
	for cursor.Next(ctx) {
		var bsonMap bson.M
		if err := cursor.Decode(&bsonMap); err != nil {
			return nil, err
		}
		resultList = append(resultList, fromBSON(bsonMap).(map[string]any))
		if single {
			break
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return resultList, nil
}

func (driver *MongoDriver) FindOne(ctx context.Context, schema *core.SchemaCore, query *core.Where) (any, error) {
	rowList, err := driver.find(ctx, schema, query, true)
	if err != nil {
		return nil, err
	}
	if len(rowList) == 0 {
		return nil, nil
	}
	return rowList[0], nil
}

func (driver *MongoDriver) FindMany(ctx context.Context, schema *core.SchemaCore, query *core.Where) (any, error) {
	return driver.find(ctx, schema, query, false)
}

func (driver *MongoDriver) Update(ctx context.Context, schema *core.SchemaCore, condition *core.Condition, changes core.Changes) error {
	coll, err := driver.coll(schema)
	if err != nil {
		return err
	}
	set := bson.M{}
	for k, v := range changes {
		set[k] = toBSON(v)
	}
	_, err = coll.UpdateMany(driver.withSession(ctx), buildFilter(condition), bson.M{"$set": set})
	return err
}

func (driver *MongoDriver) Delete(ctx context.Context, schema *core.SchemaCore, condition *core.Condition) error {
	coll, err := driver.coll(schema)
	if err != nil {
		return err
	}
	_, err = coll.DeleteMany(driver.withSession(ctx), buildFilter(condition))
	return err
}

func (driver *MongoDriver) Count(ctx context.Context, schema *core.SchemaCore, query *core.Where) (int64, error) {
	ctx = driver.withSession(ctx)
	coll, err := driver.coll(schema)
	if err != nil {
		return 0, err
	}
	if !hasJoins(query) {
		return coll.CountDocuments(ctx, buildFilter(safeCondition(query)))
	}
	pipeline := buildLookups(query.From)
	pipeline = append(pipeline,
		bson.D{{Key: "$match", Value: buildFilter(safeCondition(query))}},
		bson.D{{Key: "$count", Value: "count"}},
	)
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)
	var out []struct {
		Count int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Count, nil
}
