package listing

import (
	"github.com/kazdex/bazaar/internal/db"
	"github.com/kazdex/bazaar/internal/domain/listing"
)

// KeyPrefixFor returns the hash key prefix for listing documents.
func KeyPrefixFor(prefix string) string {
	return prefix + "listings:"
}

// IndexNameFor returns the FT index name for listings.
func IndexNameFor(prefix string) string {
	return prefix + "listings-idx"
}

// IndexDef builds the FT index definition over listing hashes. The embedding
// field is deliberately left out of the schema: semantic retrieval decodes
// stored vectors client-side instead of using server-side KNN.
func IndexDef(prefix string) *db.IndexDefinition {
	return db.NewIndex(IndexNameFor(prefix)).
		Prefix(KeyPrefixFor(prefix)).
		TextWeighted(listing.FieldTitle, 2).
		Text(listing.FieldDescription).
		TagWithOpts(listing.FieldTags, listing.TagSeparator, false).
		Tag(listing.FieldCity).
		Tag(listing.FieldCategory).
		Tag(listing.FieldUserID).
		Geo(listing.FieldLocation).
		NumericSortable(listing.FieldPrice).
		NumericSortable(listing.FieldPostedAt).
		Numeric(listing.FieldExpiresAt).
		MustBuild()
}
