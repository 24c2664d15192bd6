// Package loader tracks load state for catalog data: whether a load is in
// flight, the data of the last successful load, the last error and the
// progress of a multi-provider fetch.
package loader
