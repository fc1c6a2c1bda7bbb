package infrastructure

// MetadataAttributeName names the fingerprint stored alongside a downloaded file.
const MetadataAttributeName = "file_hash_check_parts"
