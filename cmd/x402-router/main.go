// x402-router sends requests through an x402 payment router.
//
// Every request to the router carries a signed EIP-2612 permit in the
// router's payment header. When the router rejects a permit as stale, the
// request is retried once with the terms from its PAYMENT-REQUIRED challenge.
//
// Usage:
//
//	x402-router config                 Show the router's payment configuration
//	x402-router request <path>         Send a paid request
//	x402-router challenge <value>      Decode a PAYMENT-REQUIRED header
//	x402-router networks               List supported networks
//	x402-router version                Show version info
package main

import "github.com/port402/x402-router/internal/commands"

func main() {
	commands.Execute()
}
