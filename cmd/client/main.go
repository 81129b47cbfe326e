package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"gitlab.com/silenteer-oss/fetch"
	"gitlab.com/silenteer-oss/fetch/restful"
)

func main() {
	url := flag.String("url", "http://127.0.0.1:8080/json?from=10&to=90", "url to fetch")
	timeout := flag.Duration("timeout", 10*time.Second, "body read timeout")
	maxSize := flag.Int64("max-size", 1<<20, "body size limit in bytes")
	flag.Parse()

	logger := fetch.GetLogger()
	ctx := context.Background()

	res, err := http.Get(*url)
	if err != nil {
		logger.Error(fmt.Sprintf("request error: %+v", err))
		os.Exit(1)
	}

	rp, err := restful.FromHTTPResponse(res, fetch.WithTimeout(*timeout), fetch.WithMaxSize(*maxSize))
	if err != nil {
		logger.Error(fmt.Sprintf("response error: %+v", err))
		os.Exit(1)
	}

	cl, err := rp.Clone()
	if err != nil {
		logger.Error(fmt.Sprintf("clone error: %+v", err))
		os.Exit(1)
	}

	fmt.Println(rp.String(), "ok:", rp.OK())
	rp.Headers().ForEach(func(name, value string) {
		fmt.Printf("%s: %s\n", name, value)
	})

	text, err := rp.TextConverted(ctx)
	if err != nil {
		logger.Error(fmt.Sprintf("body error: %+v", err))
		os.Exit(1)
	}
	fmt.Println(text)

	blob, err := cl.Blob(ctx)
	if err != nil {
		logger.Error(fmt.Sprintf("clone body error: %+v", err))
		os.Exit(1)
	}
	fmt.Printf("clone: %d bytes of %q\n", blob.Size(), blob.Type())
}
