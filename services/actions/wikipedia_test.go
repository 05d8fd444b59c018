package actions_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/sageloop/sage/core/types"
	"github.com/sageloop/sage/services/actions"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("WikiSearchAction", func() {
	var server *httptest.Server

	BeforeEach(func() {
		pages := map[string]struct {
			id      int
			extract string
			fullURL string
		}{
			"Paris": {
				id:      1,
				extract: "<p>Paris is the capital and most populous city of France.</p>",
				fullURL: "https://en.wikipedia.org/wiki/Paris",
			},
			"France": {
				id:      2,
				extract: "<p>France is a country in Western Europe.</p>",
				fullURL: "https://en.wikipedia.org/wiki/France",
			},
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("list") == "search" {
				fmt.Fprint(w, `{"query":{"search":[{"title":"Paris","pageid":1},{"title":"France","pageid":2}]}}`)
				return
			}
			page, ok := pages[q.Get("titles")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			fmt.Fprintf(w, `{"query":{"pages":{"%d":{"title":%q,"extract":%q,"fullurl":%q}}}}`,
				page.id, q.Get("titles"), page.extract, page.fullURL)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("returns the best pages as tagged documents", func() {
		a := actions.NewWikiSearch(map[string]string{"base_url": server.URL})
		res, err := a.Run(context.TODO(), types.ActionParams{"query": "capital of France"})
		Expect(err).ToNot(HaveOccurred())

		Expect(res.Result).To(ContainSubstring(`<Document source="https://en.wikipedia.org/wiki/Paris" page=""/>`))
		Expect(res.Result).To(ContainSubstring("Paris is the capital and most populous city of France."))
		Expect(res.Result).To(ContainSubstring(`<Document source="https://en.wikipedia.org/wiki/France" page=""/>`))
		Expect(res.Result).To(ContainSubstring("\n\n---\n\n"))
		Expect(res.Result).To(ContainSubstring("</Document>"))
	})

	It("keeps the search ranking order", func() {
		a := actions.NewWikiSearch(map[string]string{"base_url": server.URL})
		res, err := a.Run(context.TODO(), types.ActionParams{"query": "capital of France"})
		Expect(err).ToNot(HaveOccurred())

		parisAt := strings.Index(res.Result, "wiki/Paris")
		franceAt := strings.Index(res.Result, "wiki/France")
		Expect(parisAt).To(BeNumerically(">=", 0))
		Expect(franceAt).To(BeNumerically(">", parisAt))
	})

	It("exposes the formatted documents under the wiki_results key", func() {
		a := actions.NewWikiSearch(map[string]string{"base_url": server.URL})
		res, err := a.Run(context.TODO(), types.ActionParams{"query": "capital of France"})
		Expect(err).ToNot(HaveOccurred())

		payload, ok := res.Payload.(map[string]interface{})
		Expect(ok).To(BeTrue())
		Expect(payload["wiki_results"]).To(Equal(res.Result))
	})

	It("respects the configured result count", func() {
		var searchLimit string
		limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("list") == "search" {
				searchLimit = q.Get("srlimit")
				fmt.Fprint(w, `{"query":{"search":[{"title":"Paris","pageid":1}]}}`)
				return
			}
			fmt.Fprint(w, `{"query":{"pages":{"1":{"title":"Paris","extract":"<p>Paris.</p>","fullurl":"https://en.wikipedia.org/wiki/Paris"}}}}`)
		}))
		defer limited.Close()

		a := actions.NewWikiSearch(map[string]string{"base_url": limited.URL, "results": "1"})
		_, err := a.Run(context.TODO(), types.ActionParams{"query": "paris"})
		Expect(err).ToNot(HaveOccurred())
		Expect(searchLimit).To(Equal("1"))
	})
})
