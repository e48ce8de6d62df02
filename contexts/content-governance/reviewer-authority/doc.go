// Package reviewerauthority resolves which identities may review content and
// which of them hold decisive authority. The roster is loaded once and
// injected; resolution never fails for unknown identities.
package reviewerauthority
