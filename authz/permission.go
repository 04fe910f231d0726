// Package authz implements the scope gate, the policy gate and the
// Permission value type used to filter backend results before they leave
// the gateway.
package authz

// Permission is the per-call authorization result produced by the policy
// gate. It is a value type: the field mask and row conditions are read-only
// after construction, so a single Permission may be applied concurrently to
// many result objects or stream items.
type Permission struct {
	// Granted is the whole-call admission decision. A denied Permission
	// short-circuits the pipeline before any backend call is made.
	Granted bool

	// FieldMask lists object fields the caller may not see. Masked
	// fields are removed from every filtered object. A field named in
	// RowConditions is never removed, whatever the mask says.
	FieldMask []string

	// RowConditions restricts which rows the caller may see: every
	// listed field must be present in the object and equal the given
	// value. An object failing the conditions is redacted entirely.
	RowConditions map[string]string
}

// AllowAll returns a Permission that admits the call and filters nothing.
// Used for routes with no declared policy.
func AllowAll() Permission {
	return Permission{Granted: true}
}

// Filter applies the permission's row conditions and field mask to a single
// object. It returns a new map, never mutating its input, and returns nil
// when the caller may not see the row at all or no visible fields remain.
// Filtering is idempotent: Filter(Filter(obj)) == Filter(obj).
func (p Permission) Filter(obj map[string]any) map[string]any {
	if !p.Granted || obj == nil {
		return nil
	}

	for field, want := range p.RowConditions {
		got, ok := obj[field]
		if !ok {
			return nil
		}
		if s, ok := got.(string); !ok || s != want {
			return nil
		}
	}

	filtered := make(map[string]any, len(obj))
	for k, v := range obj {
		if p.fieldMasked(k) {
			continue
		}
		filtered[k] = v
	}

	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

// FilterMany applies Filter to each element independently. Fully-redacted
// items are dropped, so the returned list may be shorter than the input but
// never longer.
func (p Permission) FilterMany(list []map[string]any) []map[string]any {
	if !p.Granted {
		return nil
	}

	filtered := make([]map[string]any, 0, len(list))
	for _, obj := range list {
		if f := p.Filter(obj); f != nil {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// FilterStreamItem filters one item of a live stream. Streams capture their
// Permission at registration time and apply it per emitted item; the
// permission is not re-evaluated for the lifetime of the stream.
func (p Permission) FilterStreamItem(item map[string]any) map[string]any {
	return p.Filter(item)
}

// fieldMasked reports whether field is stripped from filtered objects.
// Row-condition fields are exempt from the mask: their value is already
// pinned by the condition, and stripping them would make a second filtering
// pass redact an object the first pass authorized.
func (p Permission) fieldMasked(field string) bool {
	if _, conditioned := p.RowConditions[field]; conditioned {
		return false
	}
	for _, masked := range p.FieldMask {
		if masked == field {
			return true
		}
	}
	return false
}
