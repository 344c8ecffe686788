package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/nhdewitt/httpdemo/internal/logging"
	"github.com/nhdewitt/httpdemo/internal/request"
)

var port = flag.Int("port", 1234, "port number")

// printRequest dumps the request view handlers see.
func printRequest(req *request.Request) {
	fmt.Println("Request line:")
	fmt.Printf("- Method: %s\n", req.RequestLine.Method)
	fmt.Printf("- Target: %s\n", req.RequestLine.RequestTarget)
	fmt.Printf("- Path: %s\n", req.Path())
	if req.HasQuery() {
		fmt.Printf("- Query: %s\n", req.RawQuery())
	}
	fmt.Printf("- Version: %s\n", req.RequestLine.HttpVersion)
	fmt.Println("Headers:")
	req.Headers.Each(func(name, value string) {
		fmt.Printf("- %s: %s\n", name, value)
	})
	fmt.Println("Body:")
	fmt.Println(string(req.Body))
}

func main() {
	flag.Parse()
	log := logging.New(logging.Config{Level: "info", Format: logging.FormatConsole})

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Error().Err(err).Msg("error listening")
		os.Exit(1)
	}
	defer listener.Close()

	log.Info().Int("port", *port).Msg("listening for TCP traffic")
	for {
		c, err := listener.Accept()
		if err != nil {
			log.Error().Err(err).Msg("error accepting connection")
			continue
		}
		log.Info().Str("remote", c.RemoteAddr().String()).Msg("connection accepted")

		req, err := request.RequestFromReader(c)
		if err != nil {
			log.Warn().Err(err).Msg("error parsing request")
		} else {
			printRequest(req)
		}
		c.Close()
		log.Info().Str("remote", c.RemoteAddr().String()).Msg("connection closed")
	}
}
