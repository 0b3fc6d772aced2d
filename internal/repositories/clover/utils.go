package repositories_clover

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/ostafen/clover/v2"
	clover_d "github.com/ostafen/clover/v2/document"
	"github.com/pkg/errors"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

const (
	pkField    = "_id"
	idField    = "ID"
	jsonIDName = "id"
)

func handleDBError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		repositories.NotFoundError,
		repositories.InvalidDataError,
		repositories.UnsupportedExpressionError,
		repositories.NotImplementedError,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch {
	case errors.Is(err, clover.ErrDocumentNotExist):
		return repositories.NotFoundError
	case errors.Is(err, clover.ErrDuplicateKey):
		return repositories.InvalidDataError
	default:
		return errors.Wrap(repositories.DatabaseError, err.Error())
	}
}

// toCloverDoc converts data into a document keyed by its json field names.
// The model's own id field is dropped: documents are keyed by _id. Integers are
// stored as int64 or uint64 so that clover compares them exactly.
func toCloverDoc[T any](data T) (*clover_d.Document, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrapf(repositories.InvalidDataError, "encode %T: %v", data, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var fields map[string]interface{}
	if err := decoder.Decode(&fields); err != nil || fields == nil {
		return nil, errors.Wrapf(repositories.InvalidDataError, "%T is not a json object", data)
	}
	delete(fields, fieldJSONTag[T](idField))

	doc := clover_d.NewDocumentOf(exactNumbers(fields))
	if doc == nil {
		return nil, errors.Wrapf(repositories.InvalidDataError, "%T cannot be stored as a document", data)
	}
	return doc, nil
}

func exactNumbers(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return u
		}
		f, _ := v.Float64()
		return f
	case map[string]interface{}:
		for key, item := range v {
			v[key] = exactNumbers(item)
		}
	case []interface{}:
		for i, item := range v {
			v[i] = exactNumbers(item)
		}
	}
	return value
}

func toModel[T any](doc *clover_d.Document) (T, error) {
	var model T
	if err := doc.Unmarshal(&model); err != nil {
		return model, errors.Wrapf(repositories.DatabaseError, "decode document %s: %v", doc.ObjectId(), err)
	}
	return repositories.UpdateField(model, idField, doc.ObjectId())
}

// documentID returns the id of a model, or InvalidDataError when it has none.
func documentID[T any](data T) (string, error) {
	value, err := repositories.FieldValue(data, idField)
	if err != nil {
		return "", errors.Wrap(repositories.InvalidDataError, err.Error())
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return "", repositories.InvalidDataError
	}
	return id, nil
}

func fieldJSONTag[T any](field string) string {
	fieldName := field
	if field, ok := reflect.TypeOf(*new(T)).FieldByName(field); ok {
		if tag, ok := field.Tag.Lookup("json"); ok {
			fieldName = strings.Split(tag, ",")[0]
		}
	}
	return fieldName
}

// documentField maps a struct field name, or a json field name, to the key the
// field is stored under.
func documentField[T any](field string) (string, bool) {
	t := reflect.TypeOf(*new(T))
	if field == idField || field == pkField || field == fieldJSONTag[T](idField) {
		return pkField, true
	}
	if _, ok := t.FieldByName(field); ok {
		return fieldJSONTag[T](field), true
	}
	for i := 0; i < t.NumField(); i++ {
		if fieldJSONTag[T](t.Field(i).Name) == field {
			return field, true
		}
	}
	return "", false
}
