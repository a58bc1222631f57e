// Package secrets turns base64-encoded token files held in environment
// variables into files on disk, and back.
//
// CI systems can only hand secrets to a job as environment variables, while
// the credential stores read token files. Materialize bridges the two before
// the stores run; Encode produces the value to store as the CI secret.
package secrets
