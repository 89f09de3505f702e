//go:build ignore

// bridge-demo.go - drives a bridge transfer against a running bridge server
//
// This script:
// 1. Waits for the server to become healthy
// 2. Funds the target chain pool (needs an operator token when auth is enabled)
// 3. Initiates a transfer and polls it until it resolves
//
// Usage:
//   go run scripts/bridge-demo.go -url http://localhost:8080 -token $(go run scripts/generate-operator-jwt.go -config config.yaml)

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

const (
	colorRed   = "\033[0;31m"
	colorGreen = "\033[0;32m"
	colorCyan  = "\033[0;36m"
	colorReset = "\033[0m"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Bridge server URL")
	token := flag.String("token", "", "Operator token for funding the pool")
	source := flag.Uint64("source", 1, "Source chain id")
	target := flag.Uint64("target", 137, "Target chain id")
	amount := flag.String("amount", "10000", "Amount in smallest units")
	address := flag.String("address", "0x52908400098527886E0F7030069857D2E4169EE7", "Recipient on the target chain")
	timeout := flag.Duration("timeout", 5*time.Minute, "How long to wait for resolution")
	flag.Parse()

	api := *baseURL + "/api/v1"

	printStep("Waiting for %s", *baseURL)
	if err := waitForHealth(*baseURL+"/health", 30); err != nil {
		fail(err)
	}

	printStep("Funding pool on chain %d", *target)
	fund := map[string]string{"amount": *amount}
	if _, err := call(http.MethodPost, fmt.Sprintf("%s/liquidity/%d/add", api, *target), *token, fund); err != nil {
		fail(err)
	}
	printSuccess("Pool funded")

	printStep("Initiating transfer %d -> %d", *source, *target)
	raw, err := call(http.MethodPost, api+"/bridge", "", &bridge.InitiateRequest{
		DomainID:      "demo.eth",
		SourceChain:   *source,
		TargetChain:   *target,
		Amount:        *amount,
		TargetAddress: *address,
	})
	if err != nil {
		fail(err)
	}
	var req bridge.RequestResponse
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(err)
	}
	printSuccess("Request %s accepted, fee %s, ~%d minutes", req.ID, req.Fee, req.EstimatedMinutes)

	deadline := time.Now().Add(*timeout)
	for time.Now().Before(deadline) {
		raw, err := call(http.MethodGet, api+"/bridge/"+req.ID, "", nil)
		if err != nil {
			fail(err)
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			fail(err)
		}
		if req.Status.IsTerminal() {
			printSuccess("Request %s resolved: %s", req.ID, req.Status)
			return
		}
		time.Sleep(5 * time.Second)
	}
	fail(fmt.Errorf("request %s still %s after %s", req.ID, req.Status, *timeout))
}

func call(method, url, token string, body any) ([]byte, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	httpReq, err := http.NewRequest(method, url, r)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s %s: %d %s", method, url, resp.StatusCode, raw)
	}
	return raw, nil
}

func waitForHealth(url string, maxAttempts int) error {
	for i := 0; i < maxAttempts; i++ {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("timeout waiting for %s", url)
}

func fail(err error) {
	printError("%v", err)
	os.Exit(1)
}

func printStep(format string, args ...any) {
	fmt.Printf("%s>>> %s%s\n", colorCyan, fmt.Sprintf(format, args...), colorReset)
}

func printSuccess(format string, args ...any) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
}

func printError(format string, args ...any) {
	fmt.Printf("%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
}
