package main

import (
	"flag"
	"fmt"
	"net"
	"net/textproto"
	"os"
	"sort"
	"time"

	"httpstatic/internal/response"
)

// fetch sends one request line to a running server and prints what came back.
//
//	fetch -addr 127.0.0.1:8080 -method GET /index.html
func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	method := flag.String("method", "GET", "request method")
	showBody := flag.Bool("body", false, "print the response body")
	flag.Parse()

	target := "/"
	if flag.NArg() > 0 {
		target = flag.Arg(0)
	}

	conn, err := net.DialTimeout("tcp", *addr, 5*time.Second)
	if err != nil {
		fmt.Println("ERROR: failed to connect.\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(30 * time.Second)) // optional safety

	if _, err := fmt.Fprintf(conn, "%s %s HTTP/1.0\r\n\r\n", *method, target); err != nil {
		fmt.Println("ERROR: failed to send request:", err)
		os.Exit(1)
	}

	head, body, err := response.ReadResponse(conn)
	if err != nil {
		fmt.Println("ERROR: failed to read response:", err)
		os.Exit(1)
	}

	fmt.Printf("Status line:\n- Proto: %s\n- Status: %d\n- Reason: %s\n", head.Proto, head.Status, head.Reason)

	fmt.Println("Headers:")
	keys := make([]string, 0, len(head.Headers))
	for k := range head.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		// Canonicalize for display (e.g., "content-type" -> "Content-Type")
		fmt.Printf("- %s: %s\n", textproto.CanonicalMIMEHeaderKey(k), head.Headers.Get(k))
	}

	if want, ok := head.Headers.Int("content-length"); ok && want != int64(len(body)) {
		fmt.Printf("WARNING: Content-Length %d but got %d body bytes\n", want, len(body))
	}

	fmt.Printf("Body: %d bytes\n", len(body))
	if *showBody {
		_, _ = os.Stdout.Write(body)
	}
}
