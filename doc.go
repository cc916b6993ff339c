/*
Package becas is a slot-filling conversation engine for scholarship search assistants.

It collects the four search criteria of a scholarship query (study area, education
level, location and funding organization) across multiple turns, asks for
confirmation and runs the final query against a catalog. Interpretation of free
text is delegated to a SlotExtractor (an LLM or a deterministic keyword matcher),
presentation to a Renderer and the query to a ScholarshipRepository.

# Concept

Each conversation is a Session holding a CriteriaMachine and a Criteria record.
A turn feeds the latest exchange to the extractor, applies the interpretation,
advances the machine and renders the resulting dialog acts:

	NOT_STARTED -> COLLECTING -> AWAITING_CONFIRMATION -> QUERYING -> COMPLETED
	                   ^                  |
	                   +------- no -------+

Utterances that do not belong to the search flow are handed to an IntentRouter.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/becas"
		"github.com/aretw0/becas/pkg/adapters/keyword"
		"github.com/aretw0/becas/pkg/adapters/memory"
	)

	func main() {
		ctx := context.Background()
		catalog, err := memory.LoadCatalog("scholarships.yaml")
		if err != nil {
			log.Fatal(err)
		}

		eng, err := becas.New(ctx, catalog, keyword.New())
		if err != nil {
			log.Fatal(err)
		}

		_, reply, err := eng.Chat(ctx, "session-123", "Busco becas de doctorado en salud")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(reply)
	}
*/
package becas
