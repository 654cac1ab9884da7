// Package manifest loads HCL capability manifests and overlays them onto
// the extension catalog.
//
// A manifest file holds capability blocks:
//
//	capability "cache" {
//	  scope       = "application"
//	  description = "Shared object cache."
//	  default     = "lru"
//
//	  params {
//	    max_entries = 1024
//	  }
//	}
//
// Code declares capabilities and registers implementations; manifests pick
// defaults and supply deployment-specific parameters without recompiling.
// Load parses and merges the files, Validate cross-checks the result
// against what the code actually declares, and Apply writes the overlay
// into the catalog.
package manifest
