// Package aps is a thin client for the Autodesk Platform Services REST APIs
// used to run Design Automation jobs: authentication, forge app nickname,
// OSS buckets and signed transfers, app bundles, activities, work items and
// the Data Management project API.
//
// Every call maps to one documented endpoint. Non-2xx responses are returned
// as *RequestError and malformed payloads as *ContractError; nothing is
// retried.
package aps
