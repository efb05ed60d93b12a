// Package confirmation drives a Safe transaction from estimation through the collection of owner
// confirmations to its submission.
//
// A session is started with SubmitTransactionHelper.Observe. One goroutine owns the session state
// and the signature store; estimation, confirmation requests, incoming pushes and submission run
// in their own goroutines and report back to it over channels. The caller drives the session with
// the retry, request and submit channels of Events and reads ViewUpdate values until the updates
// channel is closed.
package confirmation

import (
	"errors"

	"github.com/Layr-Labs/multisig-go/pkg/execution"
)

var (
	// ErrEstimationFailed is returned when the execution information could not be loaded
	ErrEstimationFailed = execution.ErrEstimationFailed
	// ErrInvalidSignature is returned when a signature does not recover to a current owner
	ErrInvalidSignature = errors.New("signature does not belong to an owner")
	// ErrConfirmationRequestFailed is returned when the push relay did not accept a confirmation request
	ErrConfirmationRequestFailed = errors.New("confirmation request failed")
	// ErrSubmissionFailed is returned when the relay service did not execute the transaction
	ErrSubmissionFailed = execution.ErrSubmissionFailed
	// ErrPropagationFailed is returned when other owners could not be notified
	ErrPropagationFailed = errors.New("propagation failed")
	// ErrTransactionRejected is returned when an owner rejected the transaction
	ErrTransactionRejected = errors.New("transaction rejected")
	// ErrThresholdNotMet is returned when a submission is attempted without enough confirmations
	ErrThresholdNotMet = errors.New("not enough confirmations to submit")
	// ErrRestrictedTransaction is returned when a requested transaction may not be confirmed from a request
	ErrRestrictedTransaction = errors.New("restricted transaction")
)
