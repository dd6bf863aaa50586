// Package types defines the entity model shared by the larder codec, the
// reconciler, and the storage backends: custom fields, templates, items,
// image references, the Graph arena that carries them between stages, the
// Store interface, and the standard error values.
package types
