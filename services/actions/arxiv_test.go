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

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
 You Need</title>
    <summary>The dominant sequence transduction models are based on complex recurrent or
convolutional neural networks.</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <published>2018-10-11T00:50:01Z</published>
    <title>BERT: Pre-training of Deep Bidirectional Transformers</title>
    <summary>We introduce a new language representation model called BERT.</summary>
    <author><name>Jacob Devlin</name></author>
  </entry>
</feed>`

var _ = Describe("ArvixSearchAction", func() {
	var server *httptest.Server

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	It("returns papers as tagged documents", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, arxivFixture)
		}))

		a := actions.NewArvixSearch(map[string]string{"base_url": server.URL})
		res, err := a.Run(context.TODO(), types.ActionParams{"query": "transformers"})
		Expect(err).ToNot(HaveOccurred())

		Expect(res.Result).To(ContainSubstring(`<Document source="http://arxiv.org/abs/1706.03762v7" page=""/>`))
		Expect(res.Result).To(ContainSubstring("Title: Attention Is All You Need"))
		Expect(res.Result).To(ContainSubstring("Authors: Ashish Vaswani, Noam Shazeer"))
		Expect(res.Result).To(ContainSubstring("Published: 2017-06-12T17:57:34Z"))
		Expect(res.Result).To(ContainSubstring(`<Document source="http://arxiv.org/abs/1810.04805v2" page=""/>`))
		Expect(res.Result).To(ContainSubstring("\n\n---\n\n"))

		payload, ok := res.Payload.(map[string]interface{})
		Expect(ok).To(BeTrue())
		Expect(payload["arvix_results"]).To(Equal(res.Result))
	})

	It("bounds each document to a readable length", func() {
		long := strings.Repeat("y", 2000)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1234.5678v1</id>
    <published>2024-01-01T00:00:00Z</published>
    <title>t</title>
    <summary>%s</summary>
    <author><name>a</name></author>
  </entry>
</feed>`, long)
		}))

		a := actions.NewArvixSearch(map[string]string{"base_url": server.URL})
		res, err := a.Run(context.TODO(), types.ActionParams{"query": "anything"})
		Expect(err).ToNot(HaveOccurred())

		Expect(res.Result).To(ContainSubstring(strings.Repeat("y", 900)))
		Expect(res.Result).ToNot(ContainSubstring(strings.Repeat("y", 1000)))
	})

	It("asks the feed for the configured number of results", func() {
		var maxResults string
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			maxResults = r.URL.Query().Get("max_results")
			fmt.Fprint(w, arxivFixture)
		}))

		a := actions.NewArvixSearch(map[string]string{"base_url": server.URL})
		_, err := a.Run(context.TODO(), types.ActionParams{"query": "transformers"})
		Expect(err).ToNot(HaveOccurred())
		Expect(maxResults).To(Equal("3"))
	})
})
