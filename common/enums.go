// Enumerations are shared between the style data model, the document store
// and configuration, so they live in a separate package to avoid import
// cycles.
package common

//go:generate go-enum --marshal --names

// Paragraph alignment of a style.
// ENUM(start, center, end, justify)
type Alignment int
