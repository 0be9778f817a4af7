// Minimal interactive chat client for manual testing against a running
// server: registers a username, then relays stdin lines and prints
// everything the server sends.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
)

func main() {
	if err := run(); err != nil {
		log.Printf("chat_client: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "127.0.0.1:5000", "chat server address")
	user := flag.String("user", "cli-user", "username")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "%s\n", *user); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	go func() {
		_, _ = io.Copy(os.Stdout, conn)
		fmt.Println("connection closed")
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		if strings.EqualFold(strings.TrimSpace(line), "exit") {
			return nil
		}
	}
	return scanner.Err()
}
