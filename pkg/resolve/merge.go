package resolve

import "github.com/regforge/regforge/pkg/svd"

// Derivation is a merge over optional attributes: whatever the deriving
// entity sets wins, everything else comes from the already-derived base.
// Children are merged by name. Every merge returns a fresh copy.

func mergePeripheral(base, local *svd.Peripheral) *svd.Peripheral {
	out := local.Clone()
	out.DerivedFrom = ""
	if out.GroupName == "" {
		out.GroupName = base.GroupName
	}
	if out.Description == "" {
		out.Description = base.Description
	}
	out.RegisterProperties = out.RegisterProperties.Inherit(base.RegisterProperties)
	if len(out.AddressBlocks) == 0 {
		for _, b := range base.AddressBlocks {
			c := *b
			out.AddressBlocks = append(out.AddressBlocks, &c)
		}
	}
	if len(out.Interrupts) == 0 {
		for _, irq := range base.Interrupts {
			c := *irq
			out.Interrupts = append(out.Interrupts, &c)
		}
	}
	out.Registers = mergeByName(base.Registers, out.Registers, registerName, (*svd.Register).Clone)
	out.Clusters = mergeByName(base.Clusters, out.Clusters, clusterName, (*svd.Cluster).Clone)
	return out
}

func mergeCluster(base, local *svd.Cluster) *svd.Cluster {
	out := local.Clone()
	out.DerivedFrom = ""
	if out.Description == "" {
		out.Description = base.Description
	}
	if out.Dim == nil {
		out.DimElement = base.DimElement.Clone()
	}
	out.RegisterProperties = out.RegisterProperties.Inherit(base.RegisterProperties)
	out.Registers = mergeByName(base.Registers, out.Registers, registerName, (*svd.Register).Clone)
	out.Clusters = mergeByName(base.Clusters, out.Clusters, clusterName, (*svd.Cluster).Clone)
	return out
}

func mergeRegister(base, local *svd.Register) *svd.Register {
	out := local.Clone()
	out.DerivedFrom = ""
	if out.DisplayName == "" {
		out.DisplayName = base.DisplayName
	}
	if out.Description == "" {
		out.Description = base.Description
	}
	if out.Dim == nil {
		out.DimElement = base.DimElement.Clone()
	}
	out.RegisterProperties = out.RegisterProperties.Inherit(base.RegisterProperties)
	out.Fields = mergeByName(base.Fields, out.Fields, fieldName, (*svd.Field).Clone)
	return out
}

func mergeField(base, local *svd.Field) *svd.Field {
	out := local.Clone()
	out.DerivedFrom = ""
	if out.Description == "" {
		out.Description = base.Description
	}
	if out.BitOffset == nil && out.LSB == nil && out.BitRange == "" {
		b := base.Clone()
		out.BitOffset, out.BitWidth = b.BitOffset, b.BitWidth
		out.LSB, out.MSB, out.BitRange = b.LSB, b.MSB, b.BitRange
	}
	if out.Access == nil && base.Access != nil {
		out.Access = base.Access.Ptr()
	}
	if len(out.EnumeratedValues) == 0 {
		for _, ev := range base.EnumeratedValues {
			out.EnumeratedValues = append(out.EnumeratedValues, ev.Clone())
		}
	}
	return out
}

func mergeEnumSet(base, local *svd.EnumeratedValues) *svd.EnumeratedValues {
	out := local.Clone()
	out.DerivedFrom = ""
	if out.Name == "" {
		out.Name = base.Name
	}
	if out.Usage == "" {
		out.Usage = base.Usage
	}
	if len(out.Values) == 0 {
		out.Values = base.Clone().Values
	}
	return out
}

// mergeByName keeps the base order, replacing base entries that the local
// list redeclares, and appends the local entries that are new.
func mergeByName[T any](base, local []T, name func(T) string, clone func(T) T) []T {
	if len(base) == 0 {
		return local
	}
	byName := make(map[string]T, len(local))
	for _, l := range local {
		byName[name(l)] = l
	}
	out := make([]T, 0, len(base)+len(local))
	used := make(map[string]bool, len(local))
	for _, b := range base {
		if l, ok := byName[name(b)]; ok {
			out = append(out, l)
			used[name(b)] = true
			continue
		}
		out = append(out, clone(b))
	}
	for _, l := range local {
		if !used[name(l)] {
			out = append(out, l)
		}
	}
	return out
}

func registerName(r *svd.Register) string { return r.Name }
func clusterName(c *svd.Cluster) string   { return c.Name }
func fieldName(f *svd.Field) string       { return f.Name }
