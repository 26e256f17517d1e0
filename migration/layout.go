package migration

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/iov-one/harvest/errors"
)

// LayoutRule declares how a persisted model is allowed to evolve.
type LayoutRule struct {
	reserve    int
	appendOnly bool
}

// Reserve declares a flat record with n trailing field numbers reserved for
// future fields.
func Reserve(n int) LayoutRule {
	return LayoutRule{reserve: n}
}

// AppendOnly declares a record holding a nested repeated collection. It may
// only gain new top level fields by appending them.
func AppendOnly() LayoutRule {
	return LayoutRule{appendOnly: true}
}

// Field is a single protobuf field of a model.
type Field struct {
	Number   int
	Name     string
	Repeated bool
}

func (f Field) String() string {
	return fmt.Sprintf("%d:%s", f.Number, f.Name)
}

// Frozen is the layout a model was released with. Fields are in the
// "<number>:<name>" format. Capacity is only used by Reserve models and
// declares the highest field number the record may ever use.
type Frozen struct {
	Fields   []string
	Capacity int
}

var layouts = struct {
	sync.Mutex
	rules map[reflect.Type]LayoutRule
}{rules: make(map[reflect.Type]LayoutRule)}

// MustRegisterLayout declares the evolution rule of given model type.
func MustRegisterLayout(model interface{}, rule LayoutRule) {
	tp := modelType(model)
	layouts.Lock()
	defer layouts.Unlock()
	if _, ok := layouts.rules[tp]; ok {
		panic(fmt.Sprintf("layout of %s already registered", tp))
	}
	layouts.rules[tp] = rule
}

func modelType(model interface{}) reflect.Type {
	tp := reflect.TypeOf(model)
	for tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	return tp
}

// LayoutOf returns the protobuf fields of given model in declaration order.
func LayoutOf(model interface{}) ([]Field, error) {
	tp := modelType(model)
	if tp.Kind() != reflect.Struct {
		return nil, errors.Wrapf(errors.ErrType, "%T is not a struct", model)
	}
	var fields []Field
	for i := 0; i < tp.NumField(); i++ {
		tag := tp.Field(i).Tag.Get("protobuf")
		if tag == "" {
			continue
		}
		parts := strings.Split(tag, ",")
		if len(parts) < 3 {
			return nil, errors.Wrapf(errors.ErrHuman, "%s.%s: malformed tag %q", tp.Name(), tp.Field(i).Name, tag)
		}
		num, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrHuman, "%s.%s: field number %q", tp.Name(), tp.Field(i).Name, parts[1])
		}
		f := Field{Number: num, Repeated: parts[2] == "rep"}
		for _, p := range parts[3:] {
			if strings.HasPrefix(p, "name=") {
				f.Name = strings.TrimPrefix(p, "name=")
			}
		}
		if tp.Field(i).Type.Kind() == reflect.Map {
			f.Repeated = true
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// CheckLayout verifies that the current declaration of given model respects
// its registered evolution rule and is compatible with the frozen layout.
func CheckLayout(model interface{}, frozen Frozen) error {
	tp := modelType(model)
	layouts.Lock()
	rule, ok := layouts.rules[tp]
	layouts.Unlock()
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "no layout rule for %s", tp)
	}

	fields, err := LayoutOf(model)
	if err != nil {
		return err
	}

	hasCollection := false
	for i, f := range fields {
		if f.Number != i+1 {
			return errors.Wrapf(errors.ErrModel, "%s: field %s declared at position %d", tp.Name(), f, i+1)
		}
		if f.Repeated {
			hasCollection = true
		}
	}

	if len(fields) < len(frozen.Fields) {
		return errors.Wrapf(errors.ErrModel, "%s: %d fields removed", tp.Name(), len(frozen.Fields)-len(fields))
	}
	for i, want := range frozen.Fields {
		if got := fields[i].String(); got != want {
			return errors.Wrapf(errors.ErrModel, "%s: field %d changed from %q to %q", tp.Name(), i+1, want, got)
		}
	}

	if rule.appendOnly {
		if !hasCollection {
			return errors.Wrapf(errors.ErrModel, "%s: append only rule requires a repeated field", tp.Name())
		}
		return nil
	}

	if hasCollection {
		return errors.Wrapf(errors.ErrModel, "%s: records with a collection must be append only", tp.Name())
	}
	if got := len(fields) + rule.reserve; got != frozen.Capacity {
		return errors.Wrapf(errors.ErrModel, "%s: capacity changed from %d to %d", tp.Name(), frozen.Capacity, got)
	}
	return nil
}

var (
	protoField    = regexp.MustCompile(`^\s*(repeated\s+)?[\w.]+\s+(\w+)\s*=\s*(\d+)`)
	protoReserved = regexp.MustCompile(`^\s*reserved\s+(\d+)\s+to\s+(\d+)\s*;`)
)

// CheckDeclared verifies that the message of the same name in the given
// .proto source declares exactly the fields of the model and, for Reserve
// models, reserves the trailing block right after the last field.
func CheckDeclared(model interface{}, protoSrc []byte) error {
	tp := modelType(model)
	fields, err := LayoutOf(model)
	if err != nil {
		return err
	}

	var (
		declared []Field
		reserved [2]int
		found    bool
	)
	inside := false
	for _, line := range strings.Split(string(protoSrc), "\n") {
		trimmed := strings.TrimSpace(line)
		if !inside {
			if trimmed == "message "+tp.Name()+" {" {
				inside, found = true, true
			}
			continue
		}
		if trimmed == "}" {
			break
		}
		if strings.HasPrefix(trimmed, "//") {
			continue
		}
		if m := protoReserved.FindStringSubmatch(line); m != nil {
			reserved[0], _ = strconv.Atoi(m[1])
			reserved[1], _ = strconv.Atoi(m[2])
			continue
		}
		if m := protoField.FindStringSubmatch(line); m != nil {
			num, _ := strconv.Atoi(m[3])
			declared = append(declared, Field{Number: num, Name: m[2], Repeated: m[1] != ""})
		}
	}
	if !found {
		return errors.Wrapf(errors.ErrNotFound, "message %s", tp.Name())
	}

	if len(declared) != len(fields) {
		return errors.Wrapf(errors.ErrModel, "%s: %d fields declared, model has %d", tp.Name(), len(declared), len(fields))
	}
	for i, f := range fields {
		if declared[i] != f {
			return errors.Wrapf(errors.ErrModel, "%s: declared %s, model has %s", tp.Name(), declared[i], f)
		}
	}

	layouts.Lock()
	rule, ok := layouts.rules[tp]
	layouts.Unlock()
	var want [2]int
	if ok && rule.reserve > 0 {
		last := 0
		if len(fields) > 0 {
			last = fields[len(fields)-1].Number
		}
		want = [2]int{last + 1, last + rule.reserve}
	}
	if reserved != want {
		return errors.Wrapf(errors.ErrModel, "%s: reserved %d to %d, want %d to %d", tp.Name(), reserved[0], reserved[1], want[0], want[1])
	}
	return nil
}
