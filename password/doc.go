// Package password implements the password policy engine: strength scoring,
// structural requirement checks, and Argon2id hashing.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The string carries algorithm, parameters and salt, so verification needs no
// side channel. [Argon2.NeedsUpgrade] reports hashes produced with weaker
// parameters than the current configuration.
//
// # Policy
//
// [Policy.IsPasswordStrong] combines a zxcvbn score with [ValidateRequirements].
// Requirements are resolved per call from a [RequirementsSource], which lets a
// settings store override the static defaults at runtime.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Log plaintext passwords.
package password
