// Package config loads and validates scraper configuration.
//
// Values are resolved in this order, later sources winning:
//
//	defaults -> YAML file -> .env file -> environment (INATSCRAPER_*) -> command line flags
//
// The compiled-in defaults carry the species list and the crawl constants, so
// the scraper runs without any configuration file:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range cfg.Species {
//	    fmt.Println(s.FolderName())
//	}
package config
