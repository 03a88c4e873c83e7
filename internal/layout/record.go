package layout

// Record is a decoded record keyed by field name.
//
// The typed accessors panic when a field is absent or has a different type;
// records produced by Decode always match their layout, so a panic means the
// accessor does not match the layout it is used with.
type Record map[string]any

func (r Record) Uint8(name string) uint8     { return r[name].(uint8) }
func (r Record) Uint16(name string) uint16   { return r[name].(uint16) }
func (r Record) Uint32(name string) uint32   { return r[name].(uint32) }
func (r Record) Int8(name string) int8       { return r[name].(int8) }
func (r Record) Int16(name string) int16     { return r[name].(int16) }
func (r Record) Int32(name string) int32     { return r[name].(int32) }
func (r Record) Float32(name string) float32 { return r[name].(float32) }
func (r Record) Str(name string) string      { return r[name].(string) }

func (r Record) Bytes(name string) []uint8      { return r[name].([]uint8) }
func (r Record) Uint16s(name string) []uint16   { return r[name].([]uint16) }
func (r Record) Uint32s(name string) []uint32   { return r[name].([]uint32) }
func (r Record) Int16s(name string) []int16     { return r[name].([]int16) }
func (r Record) Int32s(name string) []int32     { return r[name].([]int32) }
func (r Record) Float32s(name string) []float32 { return r[name].([]float32) }
func (r Record) Sub(name string) Record         { return r[name].(Record) }
func (r Record) Subs(name string) []Record      { return r[name].([]Record) }
