// Package storage writes downloaded images to disk.
//
// Files are written to a temporary name and renamed into place, so a
// partially written image is never visible under its final name. Names
// that are already taken, on disk or by a concurrent Save of the same
// Manager, get a " (1)", " (2)", ... suffix.
//
// Usage:
//
//	manager := storage.NewManager("downloads")
//	path, err := manager.Save("wallpapers", "sunset.jpg", data)
//	if err != nil {
//	    log.Printf("Failed to save image: %v", err)
//	}
package storage
