// Package svd provides the typed hardware description tree consumed by the
// register code generator.
//
// A description is a hierarchy of Device → Peripheral → Register/Cluster →
// Field → EnumeratedValue. Optional attributes are pointers so that the
// resolver can tell "not set" apart from a zero value and cascade defaults
// from the enclosing level.
//
// Two input formats are accepted:
//
//	dev, err := svd.Parse(xmlBytes)      // CMSIS-SVD XML
//	dev, err := svd.ParseYAML(yamlBytes) // the same tree written as YAML
//	dev, err := svd.Load("chip.svd")     // dispatches on the file extension
//
// The tree is treated as immutable once loaded. Consumers that need a modified
// copy use the Clone methods.
package svd
