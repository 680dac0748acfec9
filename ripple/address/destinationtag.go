package address

import "sync"

// Custodial services (exchanges, hosted wallets) pool customer funds
// behind a small number of addresses and rely on the destination tag
// to attribute an incoming payment to the right customer; sending to
// one of these addresses without a tag effectively loses the funds.
// This table lets a host flag such addresses so the payment-building
// layer can refuse to build an untagged payment to them.
var (
	destinationTagMu       sync.RWMutex
	destinationTagRequired  = map[string]struct{}{}
)

// RequiresDestinationTag reports whether addr has been registered as
// requiring a destination tag on any payment sent to it.
func RequiresDestinationTag(addr string) bool {
	destinationTagMu.RLock()
	defer destinationTagMu.RUnlock()
	_, ok := destinationTagRequired[addr]
	return ok
}

// AddDestinationTagRequired registers addr as requiring a destination
// tag, letting a host extend the table (e.g. from a fetched exchange
// list) without forking this package.
func AddDestinationTagRequired(addr string) {
	destinationTagMu.Lock()
	defer destinationTagMu.Unlock()
	destinationTagRequired[addr] = struct{}{}
}

// RemoveDestinationTagRequired undoes AddDestinationTagRequired.
func RemoveDestinationTagRequired(addr string) {
	destinationTagMu.Lock()
	defer destinationTagMu.Unlock()
	delete(destinationTagRequired, addr)
}
