// Package member holds the account catalog that backs password login:
// members, their granted authorities, and the credential check that turns a
// username and password into an auth.Identity for token issuance.
//
// Two stores are provided. MemoryStore serves tests and single-process
// deployments; GormStore persists to PostgreSQL with the tables member,
// authority, and the user_authority join table.
package member
