package types

import "encoding/json"

// wireValue is the on-the-wire JSON shape for a Value: a tagged union so
// values stay opaque blobs on the wire while still round-tripping through
// a typed Go representation.
type wireValue struct {
	Kind  string                `json:"kind"`
	Bool  *bool                 `json:"bool,omitempty"`
	Int   *int64                `json:"int,omitempty"`
	Float *float64              `json:"float,omitempty"`
	Str   *string               `json:"str,omitempty"`
	Bytes []byte                `json:"bytes,omitempty"`
	List  []wireValue           `json:"list,omitempty"`
	Map   map[string]wireValue  `json:"map,omitempty"`
}

var kindNames = map[Kind]string{
	KindNull: "null", KindBool: "bool", KindInt: "int", KindFloat: "float",
	KindString: "string", KindBytes: "bytes", KindList: "list", KindMap: "map",
}

var namesToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, v := range kindNames {
		m[v] = k
	}
	return m
}()

func (v Value) toWire() wireValue {
	w := wireValue{Kind: kindNames[v.Kind]}
	switch v.Kind {
	case KindBool:
		b := v.boolVal
		w.Bool = &b
	case KindInt:
		i := v.intVal
		w.Int = &i
	case KindFloat:
		f := v.floatVal
		w.Float = &f
	case KindString:
		s := v.strVal
		w.Str = &s
	case KindBytes:
		w.Bytes = v.bytesVal
	case KindList:
		w.List = make([]wireValue, len(v.listVal))
		for i, item := range v.listVal {
			w.List[i] = item.toWire()
		}
	case KindMap:
		w.Map = make(map[string]wireValue, len(v.mapVal))
		for k, item := range v.mapVal {
			w.Map[k] = item.toWire()
		}
	}
	return w
}

func (w wireValue) toValue() Value {
	kind := namesToKind[w.Kind]
	v := Value{Kind: kind}
	switch kind {
	case KindBool:
		if w.Bool != nil {
			v.boolVal = *w.Bool
		}
	case KindInt:
		if w.Int != nil {
			v.intVal = *w.Int
		}
	case KindFloat:
		if w.Float != nil {
			v.floatVal = *w.Float
		}
	case KindString:
		if w.Str != nil {
			v.strVal = *w.Str
		}
	case KindBytes:
		v.bytesVal = w.Bytes
	case KindList:
		v.listVal = make([]Value, len(w.List))
		for i, item := range w.List {
			v.listVal[i] = item.toValue()
		}
	case KindMap:
		v.mapVal = make(map[string]Value, len(w.Map))
		for k, item := range w.Map {
			v.mapVal[k] = item.toValue()
		}
	}
	return v
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toWire())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = w.toValue()
	return nil
}

// wireRequest/wireReply are the JSON envelopes actually sent over the
// transport; they fix the lower-case wire field names and omitempty rules,
// which Request/Reply themselves carry no tags for.

type wireRequest struct {
	Action          Action                  `json:"action"`
	ProtocolVersion string                  `json:"protocol_version,omitempty"`
	Item            OperationName           `json:"item,omitempty"`
	Args            []Value                 `json:"args,omitempty"`
	Kwargs          map[string]Value        `json:"kwargs,omitempty"`
	Key             string                  `json:"key,omitempty"`
	Keys            []string                `json:"keys,omitempty"`
	Value           Value                   `json:"value,omitempty"`
	Condition       *Condition              `json:"condition,omitempty"`
}

// MarshalRequest encodes a Request for the wire.
func MarshalRequest(r Request) ([]byte, error) {
	return json.Marshal(wireRequest{
		Action: r.Action, ProtocolVersion: r.ProtocolVersion, Item: r.Item,
		Args: r.Args, Kwargs: r.Kwargs, Key: r.Key, Keys: r.Keys,
		Value: r.Value, Condition: r.Condition,
	})
}

// UnmarshalRequest decodes a Request off the wire.
func UnmarshalRequest(data []byte) (Request, error) {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return Request{}, err
	}
	return Request{
		Action: w.Action, ProtocolVersion: w.ProtocolVersion, Item: w.Item,
		Args: w.Args, Kwargs: w.Kwargs, Key: w.Key, Keys: w.Keys,
		Value: w.Value, Condition: w.Condition,
	}, nil
}

type wireReply struct {
	Value Value        `json:"value"`
	Error *ServerError `json:"error,omitempty"`
}

// MarshalReply encodes a Reply for the wire.
func MarshalReply(r Reply) ([]byte, error) {
	return json.Marshal(wireReply{Value: r.Value, Error: r.Error})
}

// UnmarshalReply decodes a Reply off the wire.
func UnmarshalReply(data []byte) (Reply, error) {
	var w wireReply
	if err := json.Unmarshal(data, &w); err != nil {
		return Reply{}, err
	}
	return Reply{Value: w.Value, Error: w.Error}, nil
}

// MarshalSnapshot/UnmarshalSnapshot encode the full state map, used by
// send_state replies and the lock protocol's checkout/checkin pair.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(map[string]Value(s))
}

func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var m map[string]Value
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return Snapshot(m), nil
}
