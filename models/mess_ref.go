package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessRef is the string form of a mess reference. Clients and older records
// send numeric mess ids, numeric strings or ObjectID hex strings.
type MessRef string

func RefFromMessID(id int64) MessRef {
	return MessRef(strconv.FormatInt(id, 10))
}

func (r MessRef) String() string {
	return string(r)
}

func (r MessRef) IsZero() bool {
	return strings.TrimSpace(string(r)) == ""
}

// MessID reports the numeric mess id the reference names, if any.
func (r MessRef) MessID() (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(string(r)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ObjectID reports the document id the reference names, if any.
func (r MessRef) ObjectID() (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(string(r)))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func (r *MessRef) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid mess id %q", data)
	}
	res := gjson.ParseBytes(data)
	switch res.Type {
	case gjson.Null:
		*r = ""
	case gjson.Number:
		*r = MessRef(strconv.FormatFloat(res.Num, 'f', -1, 64))
	case gjson.String:
		*r = MessRef(strings.TrimSpace(res.Str))
	default:
		return fmt.Errorf("invalid mess id %s", res.Raw)
	}
	return nil
}

func (r MessRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(string(r))
}

func (r *MessRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*r = ""
	case bsontype.String:
		*r = MessRef(raw.StringValue())
	case bsontype.Int32:
		*r = MessRef(strconv.FormatInt(int64(raw.Int32()), 10))
	case bsontype.Int64:
		*r = MessRef(strconv.FormatInt(raw.Int64(), 10))
	case bsontype.Double:
		*r = MessRef(strconv.FormatFloat(raw.Double(), 'f', -1, 64))
	case bsontype.ObjectID:
		*r = MessRef(raw.ObjectID().Hex())
	default:
		return fmt.Errorf("mess ref: unsupported bson type %s", t)
	}
	return nil
}
