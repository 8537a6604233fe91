// Package connectors holds sources that feed documents into a collection
// from outside the CLI arguments. The filesystem connector watches a folder
// and reports file changes for re-ingestion.
package connectors
