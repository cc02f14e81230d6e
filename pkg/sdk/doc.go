// Package shopsense provides an embedded Go client for the shopsense
// product search engine. The client loads a TSV product catalog, fits the
// embedding model, builds the similarity index in-process, and serves
// catalog lookups and natural-language queries without a server.
//
//	client, _ := shopsense.New(ctx,
//	    shopsense.WithCatalogFile("data/products.tsv"),
//	)
//	defer client.Close()
//
//	resp, _ := client.Search().Query(ctx, shopsense.Query{
//	    Text: "white shirts under 600",
//	    TopK: 5,
//	})
//	for _, m := range resp.Matches {
//	    fmt.Println(m.Product.Name, m.Score)
//	}
//
// By default queries embed with an in-process TF-IDF model fitted from the
// catalog itself. Use WithEmbedder to plug a learned model instead, and
// WithRedis to delegate nearest-neighbour search to a RediSearch vector
// index.
package shopsense
