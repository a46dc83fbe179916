// Command file-indexer indexes directory trees on slow or remote
// filesystems into a local SQLite database and searches that index.
//
// Usage:
//
//	file-indexer scan PATH            index files (streaming or SCAN_MODE)
//	file-indexer scan-batch PATH      index files, collecting the tree first
//	file-indexer scan-folders PATH    index folders
//	file-indexer search TERM          search file names (--exact)
//	file-indexer search-folders TERM  search folder names (--exact)
//	file-indexer search-ext EXT       list files by extension
//	file-indexer stats                show index statistics
//	file-indexer clear                empty the index (--yes)
//	file-indexer serve                serve the JSON API (--port)
//	file-indexer menu                 interactive menu
//	file-indexer version              print build information
//
// Run without a subcommand from a terminal to open the menu.
//
// Configuration is read from flags, the environment, an optional .env
// file and an optional file-indexer.yaml, in that order of precedence.
package main
