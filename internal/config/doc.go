// Package config provides configuration parsing for the patchwork CLI.
//
// The configuration is stored in patchwork.json in the working
// directory or one of its parents. Every field is optional.
//
// # Configuration File Structure
//
//	{
//	  "render": {
//	    "pretty": true,
//	    "indent": "  "
//	  },
//	  "serve": {
//	    "host": "localhost",
//	    "port": 8080,
//	    "pingInterval": "30s",
//	    "sendBuffer": 256,
//	    "metrics": true
//	  },
//	  "snapshot": {
//	    "bucket": "my-snapshots",
//	    "prefix": "pages/",
//	    "region": "eu-west-1"
//	  },
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.ServeAddress())
package config
