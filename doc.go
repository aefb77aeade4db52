// Package docfetch downloads documents from SlideShare, Scribd and ordinary
// web pages using a headless browser.
//
// Every URL is classified to a site profile. A profile is an ordered chain
// of extraction techniques; the first one that yields a file wins and
// printing the rendered page to PDF is always the last resort:
//
//	harvest      follow PDF and download links found in the rendered DOM
//	trigger      click download buttons, then harvest again
//	embedded     read download URLs from inline JSON in page scripts
//	mirror       open the document on third-party mirror hosts
//	api          ask an external conversion service for a download URL
//	images       rebuild the document from its page images
//	screenshots  rebuild the document from screenshots of its rendered pages
//	print        print the page to PDF
//
// Fetching a document:
//
//	engine, err := docfetch.NewChromeEngine(docfetch.WithNoSandbox())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f := docfetch.NewFetcher(engine)
//
//	res, err := f.Fetch(ctx, docfetch.Request{URL: "https://example.com/paper"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer res.Close()
//
//	res.SaveAs(res.Filename)
//
// Each fetch launches its own browser process and stages the file in its
// own scratch directory, which [Result.Close] removes.
//
// Profiles are YAML. [DefaultProfiles] returns the built-in set and
// [LoadProfiles] reads an override file:
//
//	profiles:
//	  generic:
//	    settle: 2s
//	    techniques: [harvest, print]
//	    harvest:
//	      selectors: ['a[href$=".pdf"]']
//	      match: ['.pdf']
//	      require_pdf: true
//
// Chrome or Chromium must be available in PATH, or use [WithAutoDownload]:
//
//	engine, err := docfetch.NewChromeEngine(docfetch.WithAutoDownload())
package docfetch
