package database

import (
	"path/filepath"
)

// ItemType discriminates file and folder records.
type ItemType string

const (
	ItemTypeFile   ItemType = "file"
	ItemTypeFolder ItemType = "folder"
)

// ModifiedDateLayout is the fixed-width, sortable layout of modified_date.
const ModifiedDateLayout = "2006-01-02 15:04:05"

// Record is one row of the files table.
type Record struct {
	Filename     string   `json:"filename"`
	FullPath     string   `json:"fullPath"`
	ParentPath   string   `json:"parentPath"`
	FileSize     *int64   `json:"fileSize,omitempty"`
	ModifiedDate *string  `json:"modifiedDate,omitempty"`
	ItemType     ItemType `json:"itemType"`
	// IndexedDate is assigned by the store and ignored on write.
	IndexedDate string `json:"indexedDate,omitempty"`
}

// NewFileRecord builds a file record, deriving the parent from fullPath.
func NewFileRecord(filename, fullPath string, size int64, modified string) Record {
	return Record{
		Filename:     filename,
		FullPath:     fullPath,
		ParentPath:   filepath.Dir(fullPath),
		FileSize:     &size,
		ModifiedDate: &modified,
		ItemType:     ItemTypeFile,
	}
}

// NewFolderRecord builds a folder record. Folders carry no size or mtime.
func NewFolderRecord(name, fullPath string) Record {
	return Record{
		Filename:   name,
		FullPath:   fullPath,
		ParentPath: filepath.Dir(fullPath),
		ItemType:   ItemTypeFolder,
	}
}

// FileMatch is a file search result.
type FileMatch struct {
	Filename     string `json:"filename"`
	FullPath     string `json:"fullPath"`
	FileSize     int64  `json:"fileSize"`
	ModifiedDate string `json:"modifiedDate"`
}

// FolderMatch is a folder search result.
type FolderMatch struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	ParentPath string `json:"parentPath"`
}

// ExtensionCount is one entry of the extension ranking.
type ExtensionCount struct {
	Extension string `json:"extension"`
	Count     int64  `json:"count"`
}

// IndexStats summarizes the index contents.
type IndexStats struct {
	TotalFiles    int64            `json:"totalFiles"`
	TotalFolders  int64            `json:"totalFolders"`
	TotalSizeMB   float64          `json:"totalSizeMb"`
	TopExtensions []ExtensionCount `json:"topExtensions"`
}
