package model

// ResultSet is the outcome of executing a query. Count is the size of the
// returned page and Total the size of the whole filtered set.
type ResultSet struct {
	Spec     QuerySpec
	Elements []*WorkPackage
	Count    int
	Total    int

	// Groups and GroupBy are set for grouped queries, TotalSums when sums
	// were requested.
	Groups    []Group
	GroupBy   *Attribute
	TotalSums *Sums
}
