// Package sources registers the payments and settlements definitions with the
// core registry. Import it for its side effects:
//
//	import _ "github.com/JonMunkholm/recon/internal/core/sources"
package sources
