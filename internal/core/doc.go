// Package core runs the daily sign-in for every configured account.
//
// A run loads the accounts from a [state.Store], then for each account:
//
//  1. reuses the cached access token while it is valid, otherwise exchanges
//     the refresh token for a new credential
//  2. signs in with the access token
//  3. sends the outcome to every enabled notification channel
//
// Accounts are processed one after another and a failing account never
// stops the next one. The rotated refresh tokens are saved once at the end
// of the run.
package core
